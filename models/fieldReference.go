package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FieldReference maps a (model name, human display name) pair to the
// canonical double-underscore storage path, e.g.
// ("CurrentPackageDetails", "Gross Salary") ->
// "employee__currentpackagedetails__gross_salary".
//
// Rows are seeded from the static field manifest at bootstrap; admins may add
// extra rows for dynamic attributes.
type FieldReference struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ModelName string    `gorm:"size:100;uniqueIndex:idx_fr_model_field,priority:1;not null" json:"model_name"`
	FieldName string    `gorm:"size:100;uniqueIndex:idx_fr_model_field,priority:2;not null" json:"field_name"`
	FieldPath string    `gorm:"size:255;not null" json:"field_path"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const fieldReferenceCacheKey = "fieldRefMap"

// normalizeFieldKey folds a display name into its lookup form so "Gross
// Salary" and "gross_salary" hit the same row.
func normalizeFieldKey(fieldName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(fieldName)), " ", "_")
}

// GetFieldReferenceMap returns the full "Model|field" -> path map, redis or
// db. Field names are normalized in the key; model names stay case-sensitive.
func GetFieldReferenceMap(ctx context.Context) (map[string]string, error) {
	pathMap := make(map[string]string)
	exists, err := config.GetRedisObject(fieldReferenceCacheKey, &pathMap)
	if err != nil {
		return nil, err
	}
	if exists {
		return pathMap, nil
	}

	db := config.GetDB()
	var refs []FieldReference
	if err := db.WithContext(ctx).Find(&refs).Error; err != nil {
		return nil, err
	}
	for _, ref := range refs {
		pathMap[ref.ModelName+"|"+normalizeFieldKey(ref.FieldName)] = ref.FieldPath
	}
	if err := config.SetRedisObject(fieldReferenceCacheKey, &pathMap, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return pathMap, nil
}

func ClearFieldReferenceCache() error {
	return config.RemoveRedisKey(fieldReferenceCacheKey)
}

// UpsertFieldReferenceTx writes one manifest row, keyed by (model, field).
func UpsertFieldReferenceTx(tx *gorm.DB, modelName string, fieldName string, fieldPath string) error {
	ref := FieldReference{
		ModelName: modelName,
		FieldName: fieldName,
		FieldPath: fieldPath,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "model_name"}, {Name: "field_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"field_path"}),
	}).Create(&ref).Error
}
