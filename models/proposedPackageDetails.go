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

// ProposedPackageDetails holds the proposed increment figures for one
// employee. Most columns are formula targets; increment_percentage and
// fuel_quantity are the usual hand-entered inputs.
type ProposedPackageDetails struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	EmployeeId          int             `gorm:"uniqueIndex;not null" json:"employee_id"`
	IncrementPercentage decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"increment_percentage"`
	IncrementAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"increment_amount"`
	NewGrossSalary      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"new_gross_salary"`
	FuelQuantity        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fuel_quantity"`
	FuelAllowance       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fuel_allowance"`
	BonusAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bonus_amount"`
	TotalPackage        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_package"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProposedPackageDetails struct {
	EmployeeId          int    `json:"employee_id" validate:"required"`
	IncrementPercentage string `json:"increment_percentage"`
	FuelQuantity        string `json:"fuel_quantity"`
}

func (input *NewProposedPackageDetails) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Employee](ctx, companyId, input.EmployeeId); err != nil {
		return errors.New("employee not found")
	}
	return nil
}

func SaveProposedPackageDetails(ctx context.Context, input *NewProposedPackageDetails) (*ProposedPackageDetails, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	details := ProposedPackageDetails{
		EmployeeId:          input.EmployeeId,
		IncrementPercentage: utils.DecimalOrZero(input.IncrementPercentage),
		FuelQuantity:        utils.DecimalOrZero(input.FuelQuantity),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"increment_percentage", "fuel_quantity",
		}),
	}).Create(&details).Error
	if err != nil {
		return nil, err
	}

	return &details, nil
}

func GetProposedPackageDetails(ctx context.Context, employeeId int) (*ProposedPackageDetails, error) {
	return utils.FetchByEmployeeId[ProposedPackageDetails](ctx, employeeId)
}
