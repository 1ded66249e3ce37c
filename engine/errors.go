package engine

import "fmt"

// Typed failure taxonomy. Callers branch with errors.As; the recalculation
// trigger is the only place that swallows these (logged, never propagated).

// MalformedExpressionError means an expression carries no extractable field
// reference. Every formula must reference at least one field.
type MalformedExpressionError struct {
	Expression string
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed expression: no field references in %q", e.Expression)
}

// UnknownFieldReferenceError means a display name resolved to no
// FieldReference row, neither live nor draft-suffixed.
type UnknownFieldReferenceError struct {
	ModelName string
	FieldName string
}

func (e *UnknownFieldReferenceError) Error() string {
	return fmt.Sprintf("unknown field reference [%s: %s]", e.ModelName, e.FieldName)
}

// PathResolutionError means an intermediate relation is missing on a
// specific entity (e.g. the employee has no CurrentPackageDetails row yet).
// Callers treat this as "value unavailable", not as a fatal error.
type PathResolutionError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q at segment %q: %s", e.Path, e.Segment, e.Reason)
}

// CyclicDependencyError means the formula dependency graph cannot be fully
// ordered: either a cycle or a reference that never becomes ready.
type CyclicDependencyError struct {
	Unresolved []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic or dangling formula dependencies: %v", e.Unresolved)
}

// FormulaEvaluationError wraps an arithmetic or substitution failure.
type FormulaEvaluationError struct {
	Expression string
	Err        error
}

func (e *FormulaEvaluationError) Error() string {
	return fmt.Sprintf("formula evaluation failed for %q: %v", e.Expression, e.Err)
}

func (e *FormulaEvaluationError) Unwrap() error { return e.Err }
