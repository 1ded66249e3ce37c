package engine

import (
	"errors"
	"testing"

	"github.com/mmdatafocus/increments_backend/models"
)

func binding(id int, name, expression, targetModel, targetField string) *models.FieldFormula {
	return &models.FieldFormula{
		ID:        id,
		FormulaId: id,
		Formula: &models.Formula{
			ID:                id,
			FormulaName:       name,
			FormulaExpression: expression,
			TargetModel:       targetModel,
			TargetField:       targetField,
		},
	}
}

func orderOf(t *testing.T, bindings []*models.FieldFormula) []string {
	t.Helper()
	order, err := BuildEvaluationOrder(bindings)
	if err != nil {
		t.Fatalf("BuildEvaluationOrder error: %v", err)
	}
	names := make([]string, len(order))
	for i, b := range order {
		names[i] = b.Formula.FormulaName
	}
	return names
}

func TestBuildEvaluationOrder_ChainsDependencies(t *testing.T) {
	// total_package depends on new_gross_salary which depends on
	// increment_amount; listed deliberately backwards
	bindings := []*models.FieldFormula{
		binding(1, "total_package", "[ProposedPackageDetails: New Gross Salary] + [CurrentPackageDetails: Bonus Amount]", "ProposedPackageDetails", "Total Package"),
		binding(2, "new_gross_salary", "[CurrentPackageDetails: Gross Salary] + [ProposedPackageDetails: Increment Amount]", "ProposedPackageDetails", "New Gross Salary"),
		binding(3, "increment_amount", "[CurrentPackageDetails: Gross Salary]*([ProposedPackageDetails: Increment Percentage]/100)", "ProposedPackageDetails", "Increment Amount"),
	}
	names := orderOf(t, bindings)
	pos := map[string]int{}
	for i, n := range names {
		pos[n] = i
	}
	if pos["increment_amount"] > pos["new_gross_salary"] || pos["new_gross_salary"] > pos["total_package"] {
		t.Fatalf("dependency order violated: %v", names)
	}
}

func TestBuildEvaluationOrder_IndependentKeepBindingOrder(t *testing.T) {
	bindings := []*models.FieldFormula{
		binding(1, "fuel", "[ProposedPackageDetails: Fuel Quantity]*[Configurations: Fuel Rate]", "ProposedPackageDetails", "Fuel Allowance"),
		binding(2, "bonus", "[CurrentPackageDetails: Gross Salary]*[Configurations: Bonus Constant Multiplier]", "CurrentPackageDetails", "Bonus Amount"),
		binding(3, "impact", "[ProposedPackageDetails: Fuel Allowance] + [CurrentPackageDetails: Bonus Amount]", "FinancialImpactPerMonth", "Total Impact"),
	}
	names := orderOf(t, bindings)
	if names[0] != "fuel" || names[1] != "bonus" || names[2] != "impact" {
		t.Fatalf("expected binding order preserved for independent formulas, got %v", names)
	}
}

func TestBuildEvaluationOrder_SelfReferenceIsNotACycle(t *testing.T) {
	bindings := []*models.FieldFormula{
		binding(1, "running", "[ProposedPackageDetails: Total Package] + 100", "ProposedPackageDetails", "Total Package"),
	}
	if _, err := BuildEvaluationOrder(bindings); err != nil {
		t.Fatalf("self-reference must not count as a cycle: %v", err)
	}
}

func TestBuildEvaluationOrder_CycleIsRejected(t *testing.T) {
	bindings := []*models.FieldFormula{
		binding(1, "a", "[ProposedPackageDetails: Increment Amount] + 1", "ProposedPackageDetails", "New Gross Salary"),
		binding(2, "b", "[ProposedPackageDetails: New Gross Salary] + 1", "ProposedPackageDetails", "Increment Amount"),
	}
	_, err := BuildEvaluationOrder(bindings)
	var cyclic *CyclicDependencyError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected CyclicDependencyError, got %v", err)
	}
	if len(cyclic.Unresolved) != 2 {
		t.Fatalf("expected both targets reported stuck, got %v", cyclic.Unresolved)
	}
}

func TestBuildEvaluationOrder_SummaryRunsAfterPerEmployeeTargets(t *testing.T) {
	bindings := []*models.FieldFormula{
		binding(1, "total_new", "SUM[ProposedPackageDetails: New Gross Salary]", "IncrementDetailsSummary", "Total New Gross Salary"),
		binding(2, "new_gross", "[CurrentPackageDetails: Gross Salary] + [ProposedPackageDetails: Increment Amount]", "ProposedPackageDetails", "New Gross Salary"),
	}
	names := orderOf(t, bindings)
	if names[0] != "new_gross" || names[1] != "total_new" {
		t.Fatalf("summary aggregate must follow its per-employee source, got %v", names)
	}
}
