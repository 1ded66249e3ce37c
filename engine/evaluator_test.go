package engine

import (
	"strings"
	"testing"

	"github.com/mmdatafocus/increments_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvalArithmetic_PrecedenceAndParens(t *testing.T) {
	cases := []struct {
		expr     string
		vars     map[string]decimal.Decimal
		expected string
	}{
		{"1 + 2 * 3", nil, "7"},
		{"(1 + 2) * 3", nil, "9"},
		{"10 - 4 - 3", nil, "3"},
		{"-5 + 2", nil, "-3"},
		{"+5 - -2", nil, "7"},
		{"2 * (3 + 4) / 7", nil, "2"},
		{"ref0 * (ref1 / 100)", map[string]decimal.Decimal{"ref0": dec("10000"), "ref1": dec("10")}, "1000"},
		{"ref0*ref1 + 0.5", map[string]decimal.Decimal{"ref0": dec("2"), "ref1": dec("3")}, "6.5"},
	}
	for _, tc := range cases {
		got, err := evalArithmetic(tc.expr, tc.vars)
		if err != nil {
			t.Fatalf("evalArithmetic(%q) error: %v", tc.expr, err)
		}
		if !got.Equal(dec(tc.expected)) {
			t.Fatalf("evalArithmetic(%q) = %s, expected %s", tc.expr, got, tc.expected)
		}
	}
}

func TestEvalArithmetic_DivisionByZero(t *testing.T) {
	_, err := evalArithmetic("1 / 0", nil)
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division by zero error, got %v", err)
	}
	_, err = evalArithmetic("1 / ref0", map[string]decimal.Decimal{"ref0": decimal.Zero})
	if err == nil {
		t.Fatalf("expected division by zero error for zero variable")
	}
}

func TestEvalArithmetic_RejectsAnythingButArithmetic(t *testing.T) {
	// the evaluator is a calculator, not a language: names that were not
	// bound by reference substitution and any non-arithmetic syntax fail
	for _, expr := range []string{
		"__import__",
		"os.system",
		"a; b",
		"1 +",
		"(1 + 2",
		"2 ** 3 ** ",
		"foo(1)",
	} {
		if _, err := evalArithmetic(expr, nil); err == nil {
			t.Fatalf("evalArithmetic(%q) should have failed", expr)
		}
	}
}

func TestEvalArithmetic_TrailingGarbage(t *testing.T) {
	if _, err := evalArithmetic("1 + 2 )", nil); err == nil {
		t.Fatalf("expected error for unbalanced closing parenthesis")
	}
}

func TestCoerceValue_DynamicAttributeTypes(t *testing.T) {
	cases := []struct {
		value    Value
		expected string
	}{
		{Value{Raw: "12.5", DeclaredType: models.DynamicAttributeTypeDecimal}, "12.5"},
		{Value{Raw: "7", DeclaredType: models.DynamicAttributeTypeInt}, "7"},
		{Value{Raw: "true", DeclaredType: models.DynamicAttributeTypeBool}, "1"},
		{Value{Raw: "false", DeclaredType: models.DynamicAttributeTypeBool}, "0"},
		{Value{Raw: "3000", DeclaredType: models.DynamicAttributeTypeString}, "3000"},
		{Value{Raw: "not a number", DeclaredType: models.DynamicAttributeTypeString}, "0"},
		{Value{Raw: "", DeclaredType: models.DynamicAttributeTypeDecimal}, "0"},
		{Value{Dec: dec("42")}, "42"},
	}
	for _, tc := range cases {
		got := coerceValue(tc.value)
		if !got.Equal(dec(tc.expected)) {
			t.Fatalf("coerceValue(%+v) = %s, expected %s", tc.value, got, tc.expected)
		}
	}
}
