package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmdatafocus/increments_backend/config"
	"github.com/mmdatafocus/increments_backend/models"
	"github.com/shopspring/decimal"
)

// ApplyFieldFormulas evaluates every formula bound to the scope in dependency
// order and persists the results. Callers serialize concurrent recalculation
// of the same company themselves; RecalculateSummary does it with the company
// lock. Updates are applied as they compute so later formulas read the fresh
// values of earlier ones.
func ApplyFieldFormulas(ctx context.Context, companyId string, departmentTeamId int, isDraft bool) error {
	bindings, err := models.ListScopeFieldFormulas(ctx, companyId, departmentTeamId)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		return nil
	}
	order, err := BuildEvaluationOrder(bindings)
	if err != nil {
		return err
	}
	for _, binding := range order {
		if err := applyBinding(ctx, binding, companyId, departmentTeamId, isDraft); err != nil {
			return err
		}
	}
	return nil
}

func applyBinding(ctx context.Context, binding *models.FieldFormula, companyId string, departmentTeamId int, isDraft bool) error {
	formula := binding.Formula
	model := strings.ToLower(formula.TargetModel)
	field := NormalizeFieldName(formula.TargetField)
	if !columnPattern.MatchString(field) {
		return &PathResolutionError{Path: field, Segment: field, Reason: "invalid target field"}
	}

	if model == "incrementdetailssummary" {
		return applySummaryBinding(ctx, formula, field, companyId, departmentTeamId, isDraft)
	}

	target, ok := relationTargets[model]
	if !ok || model == "employee" {
		return fmt.Errorf("formula %q targets unsupported model %s", formula.FormulaName, formula.TargetModel)
	}

	employees, err := models.ListScopeEmployees(ctx, companyId, departmentTeamId, true)
	if err != nil {
		return err
	}
	for _, employee := range employees {
		root := RootEntity{
			Model:            model,
			EmployeeID:       employee.ID,
			CompanyID:        companyId,
			DepartmentTeamID: departmentTeamId,
		}
		value, err := EvaluateFormula(ctx, formula, root, isDraft, EvaluateOptions{ZeroOnUnavailable: true})
		if err != nil {
			return err
		}
		if err := persistEmployeeValue(ctx, target, employee.ID, field, value, isDraft); err != nil {
			return err
		}
	}
	return nil
}

func applySummaryBinding(ctx context.Context, formula *models.Formula, field string, companyId string, departmentTeamId int, isDraft bool) error {
	db := config.GetDB()
	table := relationTargets["incrementdetailssummary"].LiveTable
	var rowID int
	if isDraft {
		table = relationTargets["incrementdetailssummary"].DraftTable
		draft, err := models.FirstOrCreateIncrementDetailsSummaryDraftTx(db.WithContext(ctx), companyId, departmentTeamId)
		if err != nil {
			return err
		}
		rowID = draft.ID
	} else {
		summary, err := models.FirstOrCreateIncrementDetailsSummary(ctx, companyId, departmentTeamId)
		if err != nil {
			return err
		}
		rowID = summary.ID
	}

	root := RootEntity{
		Model:            "incrementdetailssummary",
		ID:               rowID,
		CompanyID:        companyId,
		DepartmentTeamID: departmentTeamId,
	}
	value, err := EvaluateFormula(ctx, formula, root, isDraft, EvaluateOptions{ZeroOnUnavailable: true})
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET %s = ?, updated_at = NOW() WHERE id = ?", table, field)
	return db.WithContext(ctx).Exec(query, value, rowID).Error
}

// persistEmployeeValue writes one computed column. Live rows are upserted so
// a formula can materialize a missing satellite row; draft rows are only
// updated, because draft rows exist solely as explicit edits.
func persistEmployeeValue(ctx context.Context, target relationTarget, employeeID int, field string, value decimal.Decimal, isDraft bool) error {
	db := config.GetDB()
	if isDraft {
		query := fmt.Sprintf("UPDATE %s SET %s = ?, updated_at = NOW() WHERE employee_id = ?", target.DraftTable, field)
		return db.WithContext(ctx).Exec(query, value, employeeID).Error
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (employee_id, %s, created_at, updated_at) VALUES (?, ?, NOW(), NOW()) ON DUPLICATE KEY UPDATE %s = VALUES(%s), updated_at = NOW()",
		target.LiveTable, field, field, field)
	return db.WithContext(ctx).Exec(query, employeeID, value).Error
}
