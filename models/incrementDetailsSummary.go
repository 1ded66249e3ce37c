package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IncrementDetailsSummary is a query-friendly aggregate table, one row per
// (company_id, department_team_id) scope.
//
// total_employees is a live headcount maintained by the recalculation
// trigger; the other columns are targets of SUM/AVG/COUNT formulas.
//
// NOTE: This table is derived data and can be rebuilt from the base entities.
type IncrementDetailsSummary struct {
	ID                         int             `gorm:"primary_key" json:"id"`
	CompanyId                  string          `gorm:"type:char(36);uniqueIndex:idx_ids_scope,priority:1;not null" json:"company_id"`
	DepartmentTeamId           int             `gorm:"uniqueIndex:idx_ids_scope,priority:2;not null" json:"department_team_id"`
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

// FirstOrCreateIncrementDetailsSummaryTx finds or creates the scope's summary
// row inside the caller's transaction, locking it for update.
func FirstOrCreateIncrementDetailsSummaryTx(tx *gorm.DB, companyId string, departmentTeamId int) (*IncrementDetailsSummary, error) {
	summary := IncrementDetailsSummary{
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

func FirstOrCreateIncrementDetailsSummary(ctx context.Context, companyId string, departmentTeamId int) (*IncrementDetailsSummary, error) {
	db := config.GetDB()
	return FirstOrCreateIncrementDetailsSummaryTx(db.WithContext(ctx), companyId, departmentTeamId)
}

func GetIncrementDetailsSummary(ctx context.Context, companyId string, departmentTeamId int) (*IncrementDetailsSummary, error) {
	db := config.GetDB()
	var summary IncrementDetailsSummary
	err := db.WithContext(ctx).
		Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
		First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func ListIncrementDetailsSummaries(ctx context.Context, companyId string) ([]*IncrementDetailsSummary, error) {
	db := config.GetDB()
	var summaries []*IncrementDetailsSummary
	err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Order("department_team_id").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
