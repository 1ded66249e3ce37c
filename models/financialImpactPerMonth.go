package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// FinancialImpactPerMonth breaks down the monthly cost of an employee's
// proposed increment. serving_years is recomputed on every save of this row
// from the global as-of date.
type FinancialImpactPerMonth struct {
	ID              int             `gorm:"primary_key" json:"id"`
	EmployeeId      int             `gorm:"uniqueIndex;not null" json:"employee_id"`
	ServingYears    int             `gorm:"not null;default:0" json:"serving_years"`
	IncrementImpact decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"increment_impact"`
	FuelImpact      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fuel_impact"`
	BonusImpact     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bonus_impact"`
	TotalImpact     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_impact"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFinancialImpactPerMonth struct {
	EmployeeId      int    `json:"employee_id" validate:"required"`
	IncrementImpact string `json:"increment_impact"`
	FuelImpact      string `json:"fuel_impact"`
	BonusImpact     string `json:"bonus_impact"`
}

func (input *NewFinancialImpactPerMonth) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Employee](ctx, companyId, input.EmployeeId); err != nil {
		return errors.New("employee not found")
	}
	return nil
}

func SaveFinancialImpactPerMonth(ctx context.Context, input *NewFinancialImpactPerMonth) (*FinancialImpactPerMonth, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	impact := FinancialImpactPerMonth{
		EmployeeId:      input.EmployeeId,
		IncrementImpact: utils.DecimalOrZero(input.IncrementImpact),
		FuelImpact:      utils.DecimalOrZero(input.FuelImpact),
		BonusImpact:     utils.DecimalOrZero(input.BonusImpact),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"increment_impact", "fuel_impact", "bonus_impact",
		}),
	}).Create(&impact).Error
	if err != nil {
		return nil, err
	}

	return &impact, nil
}

func GetFinancialImpactPerMonth(ctx context.Context, employeeId int) (*FinancialImpactPerMonth, error) {
	return utils.FetchByEmployeeId[FinancialImpactPerMonth](ctx, employeeId)
}
