package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FieldManifestEntry is one row of the static field registry. The manifest
// replaces runtime model introspection: only fields listed here resolve in
// formula expressions.
type FieldManifestEntry struct {
	ModelName  string
	FieldName  string
	FieldPath  string
	Aggregable bool
}

// draftAliasModels are the models whose draft-suffixed name resolves to the
// same canonical path as the live one.
var draftAliasModels = []string{
	"Employee",
	"CurrentPackageDetails",
	"ProposedPackageDetails",
	"FinancialImpactPerMonth",
	"IncrementDetailsSummary",
}

// FieldManifest is the allow-list of resolvable fields.
func FieldManifest() []FieldManifestEntry {
	return []FieldManifestEntry{
		{"Employee", "Fullname", "employee__fullname", false},
		{"Employee", "Date Of Joining", "employee__date_of_joining", false},

		{"CurrentPackageDetails", "Gross Salary", "employee__currentpackagedetails__gross_salary", true},
		{"CurrentPackageDetails", "Fuel Quantity", "employee__currentpackagedetails__fuel_quantity", true},
		{"CurrentPackageDetails", "Fuel Allowance", "employee__currentpackagedetails__fuel_allowance", true},
		{"CurrentPackageDetails", "Bonus Amount", "employee__currentpackagedetails__bonus_amount", true},
		{"CurrentPackageDetails", "Total Package", "employee__currentpackagedetails__total_package", true},

		{"ProposedPackageDetails", "Increment Percentage", "employee__proposedpackagedetails__increment_percentage", true},
		{"ProposedPackageDetails", "Increment Amount", "employee__proposedpackagedetails__increment_amount", true},
		{"ProposedPackageDetails", "New Gross Salary", "employee__proposedpackagedetails__new_gross_salary", true},
		{"ProposedPackageDetails", "Fuel Quantity", "employee__proposedpackagedetails__fuel_quantity", true},
		{"ProposedPackageDetails", "Fuel Allowance", "employee__proposedpackagedetails__fuel_allowance", true},
		{"ProposedPackageDetails", "Bonus Amount", "employee__proposedpackagedetails__bonus_amount", true},
		{"ProposedPackageDetails", "Total Package", "employee__proposedpackagedetails__total_package", true},

		{"FinancialImpactPerMonth", "Serving Years", "employee__financialimpactpermonth__serving_years", true},
		{"FinancialImpactPerMonth", "Increment Impact", "employee__financialimpactpermonth__increment_impact", true},
		{"FinancialImpactPerMonth", "Fuel Impact", "employee__financialimpactpermonth__fuel_impact", true},
		{"FinancialImpactPerMonth", "Bonus Impact", "employee__financialimpactpermonth__bonus_impact", true},
		{"FinancialImpactPerMonth", "Total Impact", "employee__financialimpactpermonth__total_impact", true},

		{"IncrementDetailsSummary", "Total Employees", "incrementdetailssummary__total_employees", false},
		{"IncrementDetailsSummary", "Eligible Employees", "incrementdetailssummary__eligible_employees", false},
		{"IncrementDetailsSummary", "Total Current Gross Salary", "incrementdetailssummary__total_current_gross_salary", false},
		{"IncrementDetailsSummary", "Total Increment Amount", "incrementdetailssummary__total_increment_amount", false},
		{"IncrementDetailsSummary", "Total New Gross Salary", "incrementdetailssummary__total_new_gross_salary", false},
		{"IncrementDetailsSummary", "Average Increment Percentage", "incrementdetailssummary__average_increment_percentage", false},
		{"IncrementDetailsSummary", "Average Current Gross Salary", "incrementdetailssummary__average_current_gross_salary", false},
		{"IncrementDetailsSummary", "Average New Gross Salary", "incrementdetailssummary__average_new_gross_salary", false},
		{"IncrementDetailsSummary", "Total Fuel Allowance", "incrementdetailssummary__total_fuel_allowance", false},
		{"IncrementDetailsSummary", "Total Bonus", "incrementdetailssummary__total_bonus", false},
		{"IncrementDetailsSummary", "Total Financial Impact", "incrementdetailssummary__total_financial_impact", false},
		{"IncrementDetailsSummary", "Increment Budget Rate", "incrementdetailssummary__increment_budget_rate", false},

		// as_of_date is deliberately absent: formulas compute over decimals
		// and a date reference would coerce to zero
		{"Configurations", "Bonus Constant Multiplier", "configurations__bonus_constant_multiplier", false},
		{"Configurations", "Fuel Rate", "configurations__fuel_rate", false},
	}
}

// SeedFieldReferencesTx upserts the manifest plus the Draft-suffixed aliases.
func SeedFieldReferencesTx(tx *gorm.DB) error {
	aliases := make(map[string]bool, len(draftAliasModels))
	for _, m := range draftAliasModels {
		aliases[m] = true
	}
	for _, entry := range FieldManifest() {
		if err := UpsertFieldReferenceTx(tx, entry.ModelName, entry.FieldName, entry.FieldPath); err != nil {
			return err
		}
		if aliases[entry.ModelName] {
			if err := UpsertFieldReferenceTx(tx, entry.ModelName+"Draft", entry.FieldName, entry.FieldPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// DefaultFormulas is the versioned seed dataset. Identity is the fixed id;
// re-seeding upserts by id so admin edits to expressions are overwritten but
// extra admin-created formulas (id > 21) survive.
func DefaultFormulas() []Formula {
	t, f := utils.NewTrue(), utils.NewFalse()
	return []Formula{
		{ID: 1, FormulaName: "Increment Amount", TargetModel: "ProposedPackageDetails", TargetField: "Increment Amount",
			FormulaExpression: "[CurrentPackageDetails: Gross Salary]*([ProposedPackageDetails: Increment Percentage]/100)", FormulaIsDefault: t, IsDeleted: f},
		{ID: 2, FormulaName: "New Gross Salary", TargetModel: "ProposedPackageDetails", TargetField: "New Gross Salary",
			FormulaExpression: "[CurrentPackageDetails: Gross Salary]+[ProposedPackageDetails: Increment Amount]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 3, FormulaName: "Proposed Fuel Allowance", TargetModel: "ProposedPackageDetails", TargetField: "Fuel Allowance",
			FormulaExpression: "[ProposedPackageDetails: Fuel Quantity]*[Configurations: Fuel Rate]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 4, FormulaName: "Proposed Bonus Amount", TargetModel: "ProposedPackageDetails", TargetField: "Bonus Amount",
			FormulaExpression: "[ProposedPackageDetails: New Gross Salary]*[Configurations: Bonus Constant Multiplier]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 5, FormulaName: "Proposed Total Package", TargetModel: "ProposedPackageDetails", TargetField: "Total Package",
			FormulaExpression: "[ProposedPackageDetails: New Gross Salary]+[ProposedPackageDetails: Fuel Allowance]+[ProposedPackageDetails: Bonus Amount]", FormulaIsDefault: t, IsDeleted: f},

		{ID: 6, FormulaName: "Current Fuel Allowance", TargetModel: "CurrentPackageDetails", TargetField: "Fuel Allowance",
			FormulaExpression: "[CurrentPackageDetails: Fuel Quantity]*[Configurations: Fuel Rate]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 7, FormulaName: "Current Total Package", TargetModel: "CurrentPackageDetails", TargetField: "Total Package",
			FormulaExpression: "[CurrentPackageDetails: Gross Salary]+[CurrentPackageDetails: Fuel Allowance]+[CurrentPackageDetails: Bonus Amount]", FormulaIsDefault: t, IsDeleted: f},

		{ID: 8, FormulaName: "Increment Impact", TargetModel: "FinancialImpactPerMonth", TargetField: "Increment Impact",
			FormulaExpression: "[ProposedPackageDetails: Increment Amount]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 9, FormulaName: "Fuel Impact", TargetModel: "FinancialImpactPerMonth", TargetField: "Fuel Impact",
			FormulaExpression: "[ProposedPackageDetails: Fuel Allowance]-[CurrentPackageDetails: Fuel Allowance]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 10, FormulaName: "Bonus Impact", TargetModel: "FinancialImpactPerMonth", TargetField: "Bonus Impact",
			FormulaExpression: "[ProposedPackageDetails: Bonus Amount]/12", FormulaIsDefault: t, IsDeleted: f},
		{ID: 11, FormulaName: "Total Impact", TargetModel: "FinancialImpactPerMonth", TargetField: "Total Impact",
			FormulaExpression: "[FinancialImpactPerMonth: Increment Impact]+[FinancialImpactPerMonth: Fuel Impact]+[FinancialImpactPerMonth: Bonus Impact]", FormulaIsDefault: t, IsDeleted: f},

		{ID: 12, FormulaName: "Total Current Gross Salary", TargetModel: "IncrementDetailsSummary", TargetField: "Total Current Gross Salary",
			FormulaExpression: "SUM[CurrentPackageDetails: Gross Salary]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 13, FormulaName: "Total Increment Amount", TargetModel: "IncrementDetailsSummary", TargetField: "Total Increment Amount",
			FormulaExpression: "SUM[ProposedPackageDetails: Increment Amount]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 14, FormulaName: "Total New Gross Salary", TargetModel: "IncrementDetailsSummary", TargetField: "Total New Gross Salary",
			FormulaExpression: "SUM[ProposedPackageDetails: New Gross Salary]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 15, FormulaName: "Average Increment Percentage", TargetModel: "IncrementDetailsSummary", TargetField: "Average Increment Percentage",
			FormulaExpression: "AVG[ProposedPackageDetails: Increment Percentage]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 16, FormulaName: "Average Current Gross Salary", TargetModel: "IncrementDetailsSummary", TargetField: "Average Current Gross Salary",
			FormulaExpression: "AVG[CurrentPackageDetails: Gross Salary]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 17, FormulaName: "Average New Gross Salary", TargetModel: "IncrementDetailsSummary", TargetField: "Average New Gross Salary",
			FormulaExpression: "AVG[ProposedPackageDetails: New Gross Salary]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 18, FormulaName: "Total Fuel Allowance", TargetModel: "IncrementDetailsSummary", TargetField: "Total Fuel Allowance",
			FormulaExpression: "SUM[ProposedPackageDetails: Fuel Allowance]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 19, FormulaName: "Total Bonus", TargetModel: "IncrementDetailsSummary", TargetField: "Total Bonus",
			FormulaExpression: "SUM[ProposedPackageDetails: Bonus Amount]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 20, FormulaName: "Total Financial Impact", TargetModel: "IncrementDetailsSummary", TargetField: "Total Financial Impact",
			FormulaExpression: "SUM[FinancialImpactPerMonth: Total Impact]", FormulaIsDefault: t, IsDeleted: f},
		{ID: 21, FormulaName: "Eligible Employees", TargetModel: "IncrementDetailsSummary", TargetField: "Eligible Employees",
			FormulaExpression: "COUNT[Employee: Fullname]", FormulaIsDefault: t, IsDeleted: f},
	}
}

func SeedDefaultFormulasTx(tx *gorm.DB) error {
	for _, formula := range DefaultFormulas() {
		f := formula
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"formula_name", "formula_expression", "target_model", "target_field", "formula_is_default", "is_deleted",
			}),
		}).Create(&f).Error; err != nil {
			return err
		}
	}
	return nil
}

// AssignDefaultFormulasTx binds every default formula to the scope when the
// scope has no bindings yet. No-op for scopes with explicit bindings.
func AssignDefaultFormulasTx(tx *gorm.DB, ctx context.Context, companyId string, departmentTeamId int) error {
	var count int64
	if err := tx.Model(&FieldFormula{}).
		Where("company_id = ? AND department_team_id = ?", companyId, departmentTeamId).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, formula := range DefaultFormulas() {
		binding := FieldFormula{
			CompanyId:        companyId,
			DepartmentTeamId: departmentTeamId,
			FormulaId:        formula.ID,
		}
		if err := tx.Create(&binding).Error; err != nil {
			return err
		}
	}
	return nil
}

// AssignDefaultFormulas is the standalone entry point (department bootstrap
// goes through CreateDepartmentTeams instead). Held under the company lock so
// concurrent callers can't double-bind.
func AssignDefaultFormulas(ctx context.Context, companyId string, departmentTeamId int) error {
	release, err := utils.CompanyLock(ctx, companyId, "formulaAssignLock", "default.go", "AssignDefaultFormulas")
	if err != nil {
		return err
	}
	defer release()

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return AssignDefaultFormulasTx(tx, ctx, companyId, departmentTeamId)
	})
}

// SeedDefaults populates field references, default formulas and the
// configurations row. Idempotent; run at every bootstrap.
func SeedDefaults(ctx context.Context) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := SeedFieldReferencesTx(tx); err != nil {
			return err
		}
		if err := SeedDefaultFormulasTx(tx); err != nil {
			return err
		}
		var conf Configurations
		if err := tx.Order("id").First(&conf).Error; err == gorm.ErrRecordNotFound {
			conf = Configurations{AsOfDate: time.Now().UTC()}
			if err := tx.Create(&conf).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return ClearFieldReferenceCache()
}
