package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
	"gorm.io/gorm"
)

type DepartmentTeams struct {
	ID             int       `gorm:"primary_key" json:"id"`
	CompanyId      string    `gorm:"type:char(36);index;not null" json:"company_id"`
	DepartmentName string    `gorm:"size:100;not null" json:"department_name"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDepartmentTeams struct {
	DepartmentName string `json:"department_name" validate:"required"`
}

func (input *NewDepartmentTeams) validate(ctx context.Context, companyId string, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[DepartmentTeams](ctx, companyId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[DepartmentTeams](ctx, companyId, "department_name", input.DepartmentName, id); err != nil {
		return err
	}
	return nil
}

// CreateDepartmentTeams creates the department together with its summary row
// and, when the scope has no explicit bindings yet, the default formula
// bindings. Everything happens in one transaction so a partial failure leaves
// no orphaned bindings.
func CreateDepartmentTeams(ctx context.Context, input *NewDepartmentTeams) (*DepartmentTeams, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	department := DepartmentTeams{
		CompanyId:      companyId,
		DepartmentName: input.DepartmentName,
		IsActive:       utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&department).Error; err != nil {
			return err
		}
		if _, err := FirstOrCreateIncrementDetailsSummaryTx(tx, companyId, department.ID); err != nil {
			return err
		}
		if err := AssignDefaultFormulasTx(tx, ctx, companyId, department.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &department, nil
}

func UpdateDepartmentTeams(ctx context.Context, id int, input *NewDepartmentTeams) (*DepartmentTeams, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	department, err := utils.FetchModel[DepartmentTeams](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&department).Updates(map[string]interface{}{
		"DepartmentName": input.DepartmentName,
	}).Error
	if err != nil {
		return nil, err
	}

	return department, nil
}

func ListDepartmentTeams(ctx context.Context) ([]*DepartmentTeams, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[DepartmentTeams](ctx, companyId)
}
