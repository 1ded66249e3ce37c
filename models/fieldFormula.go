package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
)

// FieldFormula binds one Formula to an organizational scope. A scope without
// bindings simply computes nothing.
type FieldFormula struct {
	ID               int       `gorm:"primary_key" json:"id"`
	CompanyId        string    `gorm:"type:char(36);uniqueIndex:idx_ff_scope_formula,priority:1;not null" json:"company_id"`
	DepartmentTeamId int       `gorm:"uniqueIndex:idx_ff_scope_formula,priority:2;not null" json:"department_team_id"`
	FormulaId        int       `gorm:"uniqueIndex:idx_ff_scope_formula,priority:3;not null" json:"formula_id"`
	Formula          *Formula  `gorm:"foreignKey:FormulaId" json:"formula,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFieldFormula struct {
	DepartmentTeamId int `json:"department_team_id" validate:"required"`
	FormulaId        int `json:"formula_id" validate:"required"`
}

func CreateFieldFormula(ctx context.Context, input *NewFieldFormula) (*FieldFormula, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[DepartmentTeams](ctx, companyId, input.DepartmentTeamId); err != nil {
		return nil, errors.New("department team not found")
	}
	if _, err := utils.FetchSingleModel[Formula](ctx, input.FormulaId); err != nil {
		return nil, errors.New("formula not found")
	}

	binding := FieldFormula{
		CompanyId:        companyId,
		DepartmentTeamId: input.DepartmentTeamId,
		FormulaId:        input.FormulaId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&binding).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

func DeleteFieldFormula(ctx context.Context, id int) error {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return errors.New("company id is required")
	}
	binding, err := utils.FetchModel[FieldFormula](ctx, companyId, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(binding).Error
}

// ListScopeFieldFormulas returns the scope's bindings with formulas
// preloaded, excluding soft-deleted formulas. departmentTeamId of zero means
// all departments of the company.
func ListScopeFieldFormulas(ctx context.Context, companyId string, departmentTeamId int) ([]*FieldFormula, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Formula").
		Joins("JOIN formulas ON formulas.id = field_formulas.formula_id AND formulas.is_deleted = ?", false).
		Where("field_formulas.company_id = ?", companyId).
		Order("field_formulas.id")
	if departmentTeamId > 0 {
		dbCtx = dbCtx.Where("field_formulas.department_team_id = ?", departmentTeamId)
	}
	var bindings []*FieldFormula
	if err := dbCtx.Find(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}
