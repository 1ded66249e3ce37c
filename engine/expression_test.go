package engine

import (
	"errors"
	"testing"
)

func TestParseReferences_ExtractsAggregateAndBareReferences(t *testing.T) {
	refs, err := ParseReferences("SUM[CurrentPackageDetails: Gross Salary] + [Configurations: Fuel Rate]*[ProposedPackageDetails: Fuel Quantity]")
	if err != nil {
		t.Fatalf("ParseReferences error: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %d", len(refs))
	}
	if refs[0].Aggregate != AggregateSum || refs[0].ModelName != "CurrentPackageDetails" || refs[0].FieldName != "Gross Salary" {
		t.Fatalf("unexpected first reference: %+v", refs[0])
	}
	if refs[0].Raw != "SUM[CurrentPackageDetails: Gross Salary]" {
		t.Fatalf("raw text should include the aggregate prefix, got %q", refs[0].Raw)
	}
	if refs[1].Aggregate != AggregateNone {
		t.Fatalf("bare reference parsed with aggregate %q", refs[1].Aggregate)
	}
	if refs[2].FieldName != "Fuel Quantity" {
		t.Fatalf("unexpected third field name %q", refs[2].FieldName)
	}
}

func TestParseReferences_CountAndAvg(t *testing.T) {
	refs, err := ParseReferences("COUNT[Employee: Fullname] + AVG[ProposedPackageDetails: Increment Percentage]")
	if err != nil {
		t.Fatalf("ParseReferences error: %v", err)
	}
	if refs[0].Aggregate != AggregateCount || refs[1].Aggregate != AggregateAvg {
		t.Fatalf("aggregates not recognized: %+v", refs)
	}
}

func TestParseReferences_NoReferencesIsMalformed(t *testing.T) {
	for _, expr := range []string{"", "1 + 2", "[broken", "Model: Field]", "[: Gross Salary]"} {
		_, err := ParseReferences(expr)
		var malformed *MalformedExpressionError
		if !errors.As(err, &malformed) {
			t.Fatalf("ParseReferences(%q) expected MalformedExpressionError, got %v", expr, err)
		}
	}
}

func TestExpressionBody_StripsAssignmentForm(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"new_gross_salary = [CurrentPackageDetails: Gross Salary] + [ProposedPackageDetails: Increment Amount]", "[CurrentPackageDetails: Gross Salary] + [ProposedPackageDetails: Increment Amount]"},
		{"[CurrentPackageDetails: Gross Salary]*2", "[CurrentPackageDetails: Gross Salary]*2"},
		// the = here is inside the expression, after the first bracket
		{"[A: B] ", "[A: B]"},
	}
	for _, tc := range cases {
		if got := ExpressionBody(tc.in); got != tc.expected {
			t.Fatalf("ExpressionBody(%q) = %q, expected %q", tc.in, got, tc.expected)
		}
	}
}

func TestNormalizeFieldName(t *testing.T) {
	cases := map[string]string{
		"Gross Salary":               "gross_salary",
		"  Increment Amount ":        "increment_amount",
		"fullname":                   "fullname",
		"Total Current Gross Salary": "total_current_gross_salary",
	}
	for in, expected := range cases {
		if got := NormalizeFieldName(in); got != expected {
			t.Fatalf("NormalizeFieldName(%q) = %q, expected %q", in, got, expected)
		}
	}
}
