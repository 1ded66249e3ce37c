package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Draft universe.
//
// Each draft row optionally overrides one live employee's record. The
// aggregation invariant: when a draft exists for an employee, the draft row
// replaces the live row in draft-mode aggregates; when it doesn't, the live
// row is used. A draft and its live counterpart never both count.

type EmployeeDraft struct {
	ID                   int       `gorm:"primary_key" json:"id"`
	EmployeeId           int       `gorm:"uniqueIndex;not null" json:"employee_id"`
	CompanyId            string    `gorm:"type:char(36);index;not null" json:"company_id"`
	DepartmentTeamId     int       `gorm:"index;not null" json:"department_team_id"`
	Fullname             string    `gorm:"size:100;not null" json:"fullname"`
	Designation          string    `gorm:"size:100" json:"designation"`
	DateOfJoining        time.Time `json:"date_of_joining"`
	EligibleForIncrement *bool     `gorm:"not null;default:false" json:"eligible_for_increment"`
	Resign               *bool     `gorm:"not null;default:false" json:"resign"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type CurrentPackageDetailsDraft struct {
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

type ProposedPackageDetailsDraft struct {
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

type FinancialImpactPerMonthDraft struct {
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

type IncrementDetailsSummaryDraft struct {
	ID                         int             `gorm:"primary_key" json:"id"`
	CompanyId                  string          `gorm:"type:char(36);uniqueIndex:idx_idsd_scope,priority:1;not null" json:"company_id"`
	DepartmentTeamId           int             `gorm:"uniqueIndex:idx_idsd_scope,priority:2;not null" json:"department_team_id"`
	TotalEmployees             int             `gorm:"not null;default:0" json:"total_employees"`
	EligibleEmployees          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"eligible_employees"`
	TotalCurrentGrossSalary    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_current_gross_salary"`
	TotalIncrementAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_increment_amount"`
	TotalNewGrossSalary        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_new_gross_salary"`
	AverageIncrementPercentage decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"average_increment_percentage"`
	AverageCurrentGrossSalary  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"average_current_gross_salary"`
	AverageNewGrossSalary      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"average_new_gross_salary"`
	TotalFuelAllowance         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_fuel_allowance"`
	TotalBonus                 decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_bonus"`
	TotalFinancialImpact       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_financial_impact"`
	IncrementBudgetRate        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"increment_budget_rate"`
	CreatedAt                  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func FirstOrCreateIncrementDetailsSummaryDraftTx(tx *gorm.DB, companyId string, departmentTeamId int) (*IncrementDetailsSummaryDraft, error) {
	summary := IncrementDetailsSummaryDraft{
		CompanyId:        companyId,
		DepartmentTeamId: departmentTeamId,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
		FirstOrCreate(&summary)
	if result.Error != nil {
		return nil, result.Error
	}
	return &summary, nil
}

// CountScopeDraftEmployees reports how many employees of the scope have a
// draft row. Zero means the draft universe is empty for the scope.
func CountScopeDraftEmployees(ctx context.Context, companyId string, departmentTeamId int) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&EmployeeDraft{}).
		Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
		Count(&count).Error
	return count, err
}

type NewCurrentPackageDetailsDraft struct {
	EmployeeId    int    `json:"employee_id" validate:"required"`
	GrossSalary   string `json:"gross_salary"`
	FuelQuantity  string `json:"fuel_quantity"`
	FuelAllowance string `json:"fuel_allowance"`
	BonusAmount   string `json:"bonus_amount"`
}

// SaveCurrentPackageDetailsDraft upserts a draft override for the employee.
// A matching EmployeeDraft row is created alongside so draft-universe scans
// can find the employee.
func SaveCurrentPackageDetailsDraft(ctx context.Context, input *NewCurrentPackageDetailsDraft) (*CurrentPackageDetailsDraft, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Employee](ctx, companyId, input.EmployeeId); err != nil {
		return nil, errors.New("employee not found")
	}

	draft := CurrentPackageDetailsDraft{
		EmployeeId:    input.EmployeeId,
		GrossSalary:   utils.DecimalOrZero(input.GrossSalary),
		FuelQuantity:  utils.DecimalOrZero(input.FuelQuantity),
		FuelAllowance: utils.DecimalOrZero(input.FuelAllowance),
		BonusAmount:   utils.DecimalOrZero(input.BonusAmount),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmployeeDraftTx(tx, ctx, input.EmployeeId); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gross_salary", "fuel_quantity", "fuel_allowance", "bonus_amount",
			}),
		}).Create(&draft).Error
	})
	if err != nil {
		return nil, err
	}

	return &draft, nil
}

type NewProposedPackageDetailsDraft struct {
	EmployeeId          int    `json:"employee_id" validate:"required"`
	IncrementPercentage string `json:"increment_percentage"`
	FuelQuantity        string `json:"fuel_quantity"`
}

func SaveProposedPackageDetailsDraft(ctx context.Context, input *NewProposedPackageDetailsDraft) (*ProposedPackageDetailsDraft, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Employee](ctx, companyId, input.EmployeeId); err != nil {
		return nil, errors.New("employee not found")
	}

	draft := ProposedPackageDetailsDraft{
		EmployeeId:          input.EmployeeId,
		IncrementPercentage: utils.DecimalOrZero(input.IncrementPercentage),
		FuelQuantity:        utils.DecimalOrZero(input.FuelQuantity),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmployeeDraftTx(tx, ctx, input.EmployeeId); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"increment_percentage", "fuel_quantity",
			}),
		}).Create(&draft).Error
	})
	if err != nil {
		return nil, err
	}

	return &draft, nil
}

// ensureEmployeeDraftTx seeds the EmployeeDraft row from the live employee
// when it doesn't exist yet.
func ensureEmployeeDraftTx(tx *gorm.DB, ctx context.Context, employeeId int) error {
	var employee Employee
	if err := tx.First(&employee, employeeId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	draft := EmployeeDraft{
		EmployeeId:           employee.ID,
		CompanyId:            employee.CompanyId,
		DepartmentTeamId:     employee.DepartmentTeamId,
		Fullname:             employee.Fullname,
		Designation:          employee.Designation,
		DateOfJoining:        employee.DateOfJoining,
		EligibleForIncrement: employee.EligibleForIncrement,
		Resign:               employee.Resign,
	}
	return tx.Where("employee_id = ?", employee.ID).FirstOrCreate(&draft).Error
}

// DiscardScopeDrafts drops all draft rows for a scope.
func DiscardScopeDrafts(ctx context.Context, companyId string, departmentTeamId int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&EmployeeDraft{}).
			Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
			Select("employee_id")
		for _, model := range []interface{}{
			&CurrentPackageDetailsDraft{}, &ProposedPackageDetailsDraft{}, &FinancialImpactPerMonthDraft{},
		} {
			if err := tx.Where("employee_id IN (?)", sub).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
			Delete(&EmployeeDraft{}).Error; err != nil {
			return err
		}
		return tx.Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
			Delete(&IncrementDetailsSummaryDraft{}).Error
	})
}

// CommitScopeDrafts copies every draft override of the scope onto the live
// rows, then discards the drafts. All inside one transaction.
func CommitScopeDrafts(ctx context.Context, companyId string, departmentTeamId int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var employeeDrafts []EmployeeDraft
		if err := tx.Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
			Find(&employeeDrafts).Error; err != nil {
			return err
		}
		for _, ed := range employeeDrafts {
			var cpd CurrentPackageDetailsDraft
			if err := tx.Where("employee_id = ?", ed.EmployeeId).First(&cpd).Error; err == nil {
				live := CurrentPackageDetails{
					EmployeeId:    ed.EmployeeId,
					GrossSalary:   cpd.GrossSalary,
					FuelQuantity:  cpd.FuelQuantity,
					FuelAllowance: cpd.FuelAllowance,
					BonusAmount:   cpd.BonusAmount,
					TotalPackage:  cpd.TotalPackage,
				}
				if err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "employee_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"gross_salary", "fuel_quantity", "fuel_allowance", "bonus_amount", "total_package",
					}),
				}).Create(&live).Error; err != nil {
					return err
				}
			} else if err != gorm.ErrRecordNotFound {
				return err
			}

			var ppd ProposedPackageDetailsDraft
			if err := tx.Where("employee_id = ?", ed.EmployeeId).First(&ppd).Error; err == nil {
				live := ProposedPackageDetails{
					EmployeeId:          ed.EmployeeId,
					IncrementPercentage: ppd.IncrementPercentage,
					IncrementAmount:     ppd.IncrementAmount,
					NewGrossSalary:      ppd.NewGrossSalary,
					FuelQuantity:        ppd.FuelQuantity,
					FuelAllowance:       ppd.FuelAllowance,
					BonusAmount:         ppd.BonusAmount,
					TotalPackage:        ppd.TotalPackage,
				}
				if err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "employee_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"increment_percentage", "increment_amount", "new_gross_salary",
						"fuel_quantity", "fuel_allowance", "bonus_amount", "total_package",
					}),
				}).Create(&live).Error; err != nil {
					return err
				}
			} else if err != gorm.ErrRecordNotFound {
				return err
			}

			var fim FinancialImpactPerMonthDraft
			if err := tx.Where("employee_id = ?", ed.EmployeeId).First(&fim).Error; err == nil {
				live := FinancialImpactPerMonth{
					EmployeeId:      ed.EmployeeId,
					ServingYears:    fim.ServingYears,
					IncrementImpact: fim.IncrementImpact,
					FuelImpact:      fim.FuelImpact,
					BonusImpact:     fim.BonusImpact,
					TotalImpact:     fim.TotalImpact,
				}
				if err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "employee_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"serving_years", "increment_impact", "fuel_impact", "bonus_impact", "total_impact",
					}),
				}).Create(&live).Error; err != nil {
					return err
				}
			} else if err != gorm.ErrRecordNotFound {
				return err
			}
		}

		sub := tx.Model(&EmployeeDraft{}).
			Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
			Select("employee_id")
		for _, model := range []interface{}{
			&CurrentPackageDetailsDraft{}, &ProposedPackageDetailsDraft{}, &FinancialImpactPerMonthDraft{},
		} {
			if err := tx.Where("employee_id IN (?)", sub).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
			Delete(&EmployeeDraft{}).Error; err != nil {
			return err
		}
		return tx.Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
			Delete(&IncrementDetailsSummaryDraft{}).Error
	})
}
