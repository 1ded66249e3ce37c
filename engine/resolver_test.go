package engine

import (
	"errors"
	"testing"
)

func TestLookupFieldPath_DraftSuffixFallback(t *testing.T) {
	pathMap := map[string]string{
		"Employee|fullname":                       "employee__fullname",
		"CurrentPackageDetailsDraft|gross_salary": "employee__currentpackagedetails__gross_salary",
		"ProposedPackageDetails|increment_amount": "employee__proposedpackagedetails__increment_amount",
	}

	// live spelling registered, looked up as written
	path, err := lookupFieldPath(pathMap, "Employee", "fullname")
	if err != nil {
		t.Fatalf("live lookup error: %v", err)
	}
	if path != "employee__fullname" {
		t.Fatalf("live lookup = %q", path)
	}

	// only the draft-suffixed spelling registered: the live name falls back
	// to it and resolves the same canonical path
	path, err = lookupFieldPath(pathMap, "CurrentPackageDetails", "gross_salary")
	if err != nil {
		t.Fatalf("fallback lookup error: %v", err)
	}
	if path != "employee__currentpackagedetails__gross_salary" {
		t.Fatalf("fallback lookup = %q", path)
	}

	// draft-suffixed spelling looked up directly
	path, err = lookupFieldPath(pathMap, "CurrentPackageDetailsDraft", "gross_salary")
	if err != nil {
		t.Fatalf("draft lookup error: %v", err)
	}
	if path != "employee__currentpackagedetails__gross_salary" {
		t.Fatalf("draft lookup = %q", path)
	}
}

func TestLookupFieldPath_NoDoubleSuffix(t *testing.T) {
	pathMap := map[string]string{
		"EmployeeDraftDraft|fullname": "should_never_resolve",
	}
	_, err := lookupFieldPath(pathMap, "EmployeeDraft", "fullname")
	var unknown *UnknownFieldReferenceError
	if !errors.As(err, &unknown) {
		t.Fatalf("a draft-suffixed name must not gain a second suffix, got %v", err)
	}
}

func TestLookupFieldPath_BothSpellingsMiss(t *testing.T) {
	pathMap := map[string]string{
		"Employee|fullname": "employee__fullname",
	}
	_, err := lookupFieldPath(pathMap, "Employee", "nonexistent_field")
	var unknown *UnknownFieldReferenceError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldReferenceError, got %v", err)
	}
	if unknown.ModelName != "Employee" || unknown.FieldName != "nonexistent_field" {
		t.Fatalf("error names wrong reference: %+v", unknown)
	}
}
