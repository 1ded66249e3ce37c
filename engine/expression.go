package engine

import (
	"regexp"
	"strings"
)

type AggregateKind string

const (
	AggregateNone  AggregateKind = ""
	AggregateSum   AggregateKind = "SUM"
	AggregateAvg   AggregateKind = "AVG"
	AggregateCount AggregateKind = "COUNT"
)

// Reference is one symbolic field reference extracted from a formula
// expression: an optional aggregate prefix immediately followed by
// "[ModelName: Display Name]".
type Reference struct {
	Aggregate AggregateKind
	ModelName string
	FieldName string
	// Raw is the exact matched text, used for identifier substitution.
	Raw string
}

// One optional space after the colon is consumed; everything else inside the
// brackets is the display name, preserved verbatim. Model names are
// case-sensitive.
var referencePattern = regexp.MustCompile(`(SUM|AVG|COUNT)?\[([A-Za-z_][A-Za-z0-9_]*): ?([^\]]+)\]`)

// ParseReferences extracts the ordered references of an expression.
// Returns MalformedExpressionError when none are found.
func ParseReferences(expression string) ([]Reference, error) {
	matches := referencePattern.FindAllStringSubmatch(expression, -1)
	if len(matches) == 0 {
		return nil, &MalformedExpressionError{Expression: expression}
	}

	references := make([]Reference, 0, len(matches))
	for _, m := range matches {
		references = append(references, Reference{
			Aggregate: AggregateKind(m[1]),
			ModelName: m[2],
			FieldName: m[3],
			Raw:       m[0],
		})
	}
	return references, nil
}

// ExpressionBody strips a leading "name = " assignment form; only the
// right-hand side is evaluated.
func ExpressionBody(expression string) string {
	// an "=" before the first reference bracket marks the assignment form
	if idx := strings.Index(expression, "="); idx >= 0 {
		bracket := strings.Index(expression, "[")
		if bracket == -1 || idx < bracket {
			return strings.TrimSpace(expression[idx+1:])
		}
	}
	return strings.TrimSpace(expression)
}

// NormalizeFieldName maps a display name to its dependency-node identity:
// lower-cased, spaces to underscores.
func NormalizeFieldName(fieldName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(fieldName)), " ", "_")
}
