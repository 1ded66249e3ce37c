package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
)

// Formula is a named, reusable expression with a declared target field.
// Identity is by id; soft-deleted formulas keep their bindings but are
// excluded from scheduling.
type Formula struct {
	ID                int       `gorm:"primary_key" json:"id"`
	FormulaName       string    `gorm:"size:100;not null" json:"formula_name"`
	FormulaExpression string    `gorm:"type:text;not null" json:"formula_expression"`
	TargetModel       string    `gorm:"size:100;not null" json:"target_model"`
	TargetField       string    `gorm:"size:100;not null" json:"target_field"`
	FormulaIsDefault  *bool     `gorm:"not null;default:false" json:"formula_is_default"`
	IsDeleted         *bool     `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFormula struct {
	FormulaName       string `json:"formula_name" validate:"required"`
	FormulaExpression string `json:"formula_expression" validate:"required"`
	TargetModel       string `json:"target_model" validate:"required"`
	TargetField       string `json:"target_field" validate:"required"`
}

func CreateFormula(ctx context.Context, input *NewFormula) (*Formula, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	formula := Formula{
		FormulaName:       input.FormulaName,
		FormulaExpression: input.FormulaExpression,
		TargetModel:       input.TargetModel,
		TargetField:       input.TargetField,
		FormulaIsDefault:  utils.NewFalse(),
		IsDeleted:         utils.NewFalse(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&formula).Error; err != nil {
		return nil, err
	}
	return &formula, nil
}

func UpdateFormula(ctx context.Context, id int, input *NewFormula) (*Formula, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	formula, err := utils.FetchSingleModel[Formula](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(formula).Updates(map[string]interface{}{
		"FormulaName":       input.FormulaName,
		"FormulaExpression": input.FormulaExpression,
		"TargetModel":       input.TargetModel,
		"TargetField":       input.TargetField,
	}).Error
	if err != nil {
		return nil, err
	}
	return formula, nil
}

// DeleteFormula soft-deletes; default formulas can be restored by re-seeding.
func DeleteFormula(ctx context.Context, id int) error {
	formula, err := utils.FetchSingleModel[Formula](ctx, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Model(formula).Update("IsDeleted", true).Error
}
