package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalOrZero_CoercesEveryBadInputToZero(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20000.5000", "20000.5"},
		{"-150.25", "-150.25"},
		{"  42  ", "42"},
		{"", "0"},
		{"   ", "0"},
		{"abc", "0"},
		{"12abc", "0"},
		{"1,000", "0"},
	}
	for _, tc := range cases {
		got := DecimalOrZero(tc.in)
		if got.String() != tc.expected {
			t.Fatalf("DecimalOrZero(%q) = %s, expected %s", tc.in, got, tc.expected)
		}
	}
}

func TestParseDecimal_ReportsBadInput(t *testing.T) {
	if _, err := ParseDecimal(""); err == nil {
		t.Fatalf("ParseDecimal(\"\") expected error")
	}
	if _, err := ParseDecimal("xyz"); err == nil {
		t.Fatalf("ParseDecimal(\"xyz\") expected error")
	}
	d, err := ParseDecimal("10.5")
	if err != nil {
		t.Fatalf("ParseDecimal(\"10.5\") error: %v", err)
	}
	if !d.Equal(decimal.NewFromFloat(10.5)) {
		t.Fatalf("ParseDecimal(\"10.5\") = %s", d)
	}
}

func TestDecimalPtrOrZero_NilIsZero(t *testing.T) {
	if !DecimalPtrOrZero(nil).IsZero() {
		t.Fatalf("nil pointer should coerce to zero")
	}
	v := "3.14"
	if DecimalPtrOrZero(&v).String() != "3.14" {
		t.Fatalf("pointer value should parse")
	}
}
