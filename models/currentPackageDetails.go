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

type CurrentPackageDetails struct {
	ID            int             `gorm:"primary_key" json:"id"`
	EmployeeId    int             `gorm:"uniqueIndex;not null" json:"employee_id"`
	GrossSalary   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross_salary"`
	FuelQuantity  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fuel_quantity"`
	FuelAllowance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"fuel_allowance"`
	BonusAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bonus_amount"`
	TotalPackage  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_package"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewCurrentPackageDetails carries raw form values. Decimal fields arrive as
// strings and are coerced at the save boundary: empty or unparseable input
// is persisted as zero, never null.
type NewCurrentPackageDetails struct {
	EmployeeId    int    `json:"employee_id" validate:"required"`
	GrossSalary   string `json:"gross_salary"`
	FuelQuantity  string `json:"fuel_quantity"`
	FuelAllowance string `json:"fuel_allowance"`
	BonusAmount   string `json:"bonus_amount"`
}

func (input *NewCurrentPackageDetails) validate(ctx context.Context, companyId string) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Employee](ctx, companyId, input.EmployeeId); err != nil {
		return errors.New("employee not found")
	}
	return nil
}

// SaveCurrentPackageDetails upserts the one-to-one row for the employee.
func SaveCurrentPackageDetails(ctx context.Context, input *NewCurrentPackageDetails) (*CurrentPackageDetails, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	details := CurrentPackageDetails{
		EmployeeId:    input.EmployeeId,
		GrossSalary:   utils.DecimalOrZero(input.GrossSalary),
		FuelQuantity:  utils.DecimalOrZero(input.FuelQuantity),
		FuelAllowance: utils.DecimalOrZero(input.FuelAllowance),
		BonusAmount:   utils.DecimalOrZero(input.BonusAmount),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gross_salary", "fuel_quantity", "fuel_allowance", "bonus_amount",
		}),
	}).Create(&details).Error
	if err != nil {
		return nil, err
	}

	return &details, nil
}

func GetCurrentPackageDetails(ctx context.Context, employeeId int) (*CurrentPackageDetails, error) {
	return utils.FetchByEmployeeId[CurrentPackageDetails](ctx, employeeId)
}
