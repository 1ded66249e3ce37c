package models_test

import (
	"testing"

	"github.com/mmdatafocus/increments_backend/engine"
	"github.com/mmdatafocus/increments_backend/models"
)

func manifestIndex() map[string]models.FieldManifestEntry {
	index := map[string]models.FieldManifestEntry{}
	for _, entry := range models.FieldManifest() {
		index[entry.ModelName+"|"+engine.NormalizeFieldName(entry.FieldName)] = entry
	}
	return index
}

func TestFieldManifest_PathsCompile(t *testing.T) {
	for _, entry := range models.FieldManifest() {
		if _, err := engine.CompilePath(entry.FieldPath); err != nil {
			t.Fatalf("manifest path %q does not compile: %v", entry.FieldPath, err)
		}
	}
}

func TestFieldManifest_NoDuplicateEntries(t *testing.T) {
	seen := map[string]bool{}
	for _, entry := range models.FieldManifest() {
		key := entry.ModelName + "|" + engine.NormalizeFieldName(entry.FieldName)
		if seen[key] {
			t.Fatalf("duplicate manifest entry %s", key)
		}
		seen[key] = true
	}
}

func TestFieldManifest_ConfigurationFieldsAreNumeric(t *testing.T) {
	// a date reference would coerce to zero inside arithmetic, so only the
	// decimal configuration fields may be resolvable
	numeric := map[string]bool{
		"configurations__bonus_constant_multiplier": true,
		"configurations__fuel_rate":                 true,
	}
	for _, entry := range models.FieldManifest() {
		if entry.ModelName != "Configurations" {
			continue
		}
		if !numeric[entry.FieldPath] {
			t.Fatalf("non-numeric configurations field %q must not be referenceable", entry.FieldPath)
		}
	}
}

func TestDefaultFormulas_EveryReferenceResolvesInManifest(t *testing.T) {
	index := manifestIndex()
	for _, formula := range models.DefaultFormulas() {
		refs, err := engine.ParseReferences(engine.ExpressionBody(formula.FormulaExpression))
		if err != nil {
			t.Fatalf("formula %q does not parse: %v", formula.FormulaName, err)
		}
		for _, ref := range refs {
			key := ref.ModelName + "|" + engine.NormalizeFieldName(ref.FieldName)
			entry, ok := index[key]
			if !ok {
				t.Fatalf("formula %q references %s which is not in the manifest", formula.FormulaName, ref.Raw)
			}
			if ref.Aggregate != engine.AggregateNone && !entry.Aggregable && ref.Aggregate != engine.AggregateCount {
				t.Fatalf("formula %q aggregates non-aggregable field %s", formula.FormulaName, ref.Raw)
			}
		}
	}
}

func TestDefaultFormulas_TargetsResolveInManifest(t *testing.T) {
	index := manifestIndex()
	for _, formula := range models.DefaultFormulas() {
		key := formula.TargetModel + "|" + engine.NormalizeFieldName(formula.TargetField)
		if _, ok := index[key]; !ok {
			t.Fatalf("formula %q targets %s.%s which is not in the manifest", formula.FormulaName, formula.TargetModel, formula.TargetField)
		}
	}
}

func TestDefaultFormulas_FixedIdentity(t *testing.T) {
	formulas := models.DefaultFormulas()
	if len(formulas) != 21 {
		t.Fatalf("expected 21 default formulas, got %d", len(formulas))
	}
	seen := map[int]bool{}
	for _, formula := range formulas {
		if formula.ID < 1 || formula.ID > 21 {
			t.Fatalf("formula %q has id %d outside the reserved range", formula.FormulaName, formula.ID)
		}
		if seen[formula.ID] {
			t.Fatalf("duplicate default formula id %d", formula.ID)
		}
		seen[formula.ID] = true
		if formula.FormulaIsDefault == nil || !*formula.FormulaIsDefault {
			t.Fatalf("formula %q must be flagged as default", formula.FormulaName)
		}
	}
}

func TestDefaultFormulas_ScheduleIsAcyclic(t *testing.T) {
	formulas := models.DefaultFormulas()
	bindings := make([]*models.FieldFormula, 0, len(formulas))
	for i := range formulas {
		bindings = append(bindings, &models.FieldFormula{
			ID:        formulas[i].ID,
			FormulaId: formulas[i].ID,
			Formula:   &formulas[i],
		})
	}
	order, err := engine.BuildEvaluationOrder(bindings)
	if err != nil {
		t.Fatalf("default formula set must schedule cleanly: %v", err)
	}
	if len(order) != len(bindings) {
		t.Fatalf("schedule dropped bindings: %d of %d", len(order), len(bindings))
	}
}
