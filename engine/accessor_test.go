package engine

import (
	"errors"
	"testing"
)

func TestCompilePath_TagsSegments(t *testing.T) {
	segments, err := CompilePath("employee__currentpackagedetails__gross_salary")
	if err != nil {
		t.Fatalf("CompilePath error: %v", err)
	}
	kinds := []SegmentKind{SegmentRelation, SegmentRelation, SegmentField}
	if len(segments) != len(kinds) {
		t.Fatalf("expected %d segments, got %d", len(kinds), len(segments))
	}
	for i, k := range kinds {
		if segments[i].Kind != k {
			t.Fatalf("segment %d: kind %v, expected %v", i, segments[i].Kind, k)
		}
	}
}

func TestCompilePath_ConfigurationAndDynamicAttribute(t *testing.T) {
	segments, err := CompilePath("configurations__fuel_rate")
	if err != nil {
		t.Fatalf("CompilePath error: %v", err)
	}
	if segments[0].Kind != SegmentConfiguration {
		t.Fatalf("expected configuration segment, got %v", segments[0].Kind)
	}

	segments, err = CompilePath("dynamic_attribute__petrol_price")
	if err != nil {
		t.Fatalf("CompilePath error: %v", err)
	}
	if segments[0].Kind != SegmentDynamicAttribute {
		t.Fatalf("expected dynamic attribute segment, got %v", segments[0].Kind)
	}
	if segments[1].Kind != SegmentField || segments[1].Name != "petrol_price" {
		t.Fatalf("expected key as field segment, got %+v", segments[1])
	}
}

func TestCompilePath_RejectsUnknownRelationAndBadField(t *testing.T) {
	for _, path := range []string{
		"employee__secret_table__salary",
		"gross_salary",
		"employee__currentpackagedetails__Gross-Salary",
		"employee__currentpackagedetails__gross_salary; DROP TABLE employees",
	} {
		_, err := CompilePath(path)
		var pathErr *PathResolutionError
		if !errors.As(err, &pathErr) {
			t.Fatalf("CompilePath(%q) expected PathResolutionError, got %v", path, err)
		}
	}
}

func TestRelationTargets_DraftTablesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for name, target := range relationTargets {
		if target.LiveTable == "" || target.DraftTable == "" {
			t.Fatalf("relation %s has an empty table name", name)
		}
		if target.LiveTable == target.DraftTable {
			t.Fatalf("relation %s maps live and draft to the same table", name)
		}
		for _, table := range []string{target.LiveTable, target.DraftTable} {
			if seen[table] {
				t.Fatalf("table %s mapped twice", table)
			}
			seen[table] = true
		}
	}
}
