package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
	"gorm.io/gorm"
)

type DynamicAttributeType string

const (
	DynamicAttributeTypeDecimal DynamicAttributeType = "decimal"
	DynamicAttributeTypeInt     DynamicAttributeType = "int"
	DynamicAttributeTypeBool    DynamicAttributeType = "bool"
	DynamicAttributeTypeString  DynamicAttributeType = "string"
)

// DynamicAttribute is an admin-defined named constant with a declared type.
// Formula paths reach it through the dynamic_attribute path segment; lookup
// by an unknown name falls back to the most recently defined attribute.
type DynamicAttribute struct {
	ID        int                  `gorm:"primary_key" json:"id"`
	Name      string               `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Value     string               `gorm:"size:255;not null" json:"value"`
	ValueType DynamicAttributeType `gorm:"type:enum('decimal','int','bool','string');default:'decimal'" json:"value_type"`
	CreatedAt time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDynamicAttribute struct {
	Name      string               `json:"name" validate:"required"`
	Value     string               `json:"value" validate:"required"`
	ValueType DynamicAttributeType `json:"value_type" validate:"required,oneof=decimal int bool string"`
}

func SaveDynamicAttribute(ctx context.Context, input *NewDynamicAttribute) (*DynamicAttribute, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	db := config.GetDB()
	attr := DynamicAttribute{
		Name:      input.Name,
		Value:     input.Value,
		ValueType: input.ValueType,
	}
	err := db.WithContext(ctx).
		Where("name = ?", input.Name).
		Assign(map[string]interface{}{"Value": input.Value, "ValueType": input.ValueType}).
		FirstOrCreate(&attr).Error
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

// GetDynamicAttribute looks the attribute up by name. When the name is
// unknown the most recently defined attribute is returned instead.
func GetDynamicAttribute(ctx context.Context, name string) (*DynamicAttribute, error) {
	db := config.GetDB()
	var attr DynamicAttribute
	err := db.WithContext(ctx).Where("name = ?", name).First(&attr).Error
	if err == nil {
		return &attr, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	// fallback: latest defined
	err = db.WithContext(ctx).Order("id DESC").First(&attr).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &attr, nil
}
