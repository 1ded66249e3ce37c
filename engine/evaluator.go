package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/mmdatafocus/increments_backend/models"
	"github.com/mmdatafocus/increments_backend/utils"
	"github.com/shopspring/decimal"
)

// EvaluateOptions tunes one evaluation. ZeroOnUnavailable turns missing-row
// path failures into zero instead of an error, which batch recalculation uses
// so one incomplete employee does not abort the whole scope.
type EvaluateOptions struct {
	ZeroOnUnavailable bool
}

// EvaluateFormula computes one formula against a root entity. References to
// the formula's own target model are read as plain values even when the
// expression spells an aggregate, so a per-employee formula never folds the
// whole scope into a single row.
func EvaluateFormula(ctx context.Context, formula *models.Formula, root RootEntity, isDraft bool, opts EvaluateOptions) (decimal.Decimal, error) {
	body := ExpressionBody(formula.FormulaExpression)
	refs, err := ParseReferences(body)
	if err != nil {
		return decimal.Zero, err
	}

	vars := map[string]decimal.Decimal{}
	names := map[string]string{}
	for _, ref := range refs {
		if _, seen := names[ref.Raw]; seen {
			continue
		}
		aggregate := ref.Aggregate
		if strings.EqualFold(ref.ModelName, formula.TargetModel) {
			aggregate = AggregateNone
		}
		path, err := ResolveFieldPath(ctx, ref.ModelName, NormalizeFieldName(ref.FieldName))
		if err != nil {
			return decimal.Zero, err
		}
		value, err := FetchValue(ctx, root, path, aggregate, isDraft)
		if err != nil {
			var pathErr *PathResolutionError
			if opts.ZeroOnUnavailable && errors.As(err, &pathErr) {
				value = Value{Dec: decimal.Zero}
			} else {
				return decimal.Zero, err
			}
		}
		name := fmt.Sprintf("ref%d", len(names))
		names[ref.Raw] = name
		vars[name] = coerceValue(value)
	}

	// replace longer raw texts first so a bare reference never clobbers the
	// tail of an aggregate one
	raws := make([]string, 0, len(names))
	for raw := range names {
		raws = append(raws, raw)
	}
	sort.Slice(raws, func(i, j int) bool { return len(raws[i]) > len(raws[j]) })
	rewritten := body
	for _, raw := range raws {
		rewritten = strings.ReplaceAll(rewritten, raw, names[raw])
	}

	result, err := evalArithmetic(rewritten, vars)
	if err != nil {
		return decimal.Zero, &FormulaEvaluationError{Expression: formula.FormulaExpression, Err: err}
	}
	return result, nil
}

// coerceValue turns an accessor result into a decimal. Dynamic attributes
// carry a declared type; everything else already coerced at the storage
// boundary.
func coerceValue(v Value) decimal.Decimal {
	if v.DeclaredType == "" {
		return v.Dec
	}
	switch v.DeclaredType {
	case models.DynamicAttributeTypeBool:
		if strings.EqualFold(strings.TrimSpace(v.Raw), "true") {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	default:
		return utils.DecimalOrZero(v.Raw)
	}
}

// evalArithmetic evaluates +, -, *, /, parentheses and unary sign over
// decimals. Anything else in the rewritten expression is a syntax error.
type exprParser struct {
	input string
	pos   int
	vars  map[string]decimal.Decimal
}

func evalArithmetic(input string, vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	p := &exprParser{input: input, vars: vars}
	result, err := p.parseExpr()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return decimal.Zero, fmt.Errorf("unexpected character %q at offset %d", p.input[p.pos], p.pos)
	}
	return result, nil
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) parseExpr() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return left, nil
		}
		switch p.input[p.pos] {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Add(right)
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) {
			return left, nil
		}
		switch p.input[p.pos] {
		case '*':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Mul(right)
		case '/':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return decimal.Zero, err
			}
			if right.IsZero() {
				return decimal.Zero, errors.New("division by zero")
			}
			left = left.Div(right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseFactor() (decimal.Decimal, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return decimal.Zero, errors.New("unexpected end of expression")
	}
	switch c := p.input[p.pos]; {
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return decimal.Zero, err
		}
		p.skipSpaces()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return decimal.Zero, errors.New("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case c == '+':
		p.pos++
		return p.parseFactor()
	case c == '-':
		p.pos++
		inner, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		return inner.Neg(), nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case unicode.IsLetter(rune(c)) || c == '_':
		return p.parseIdentifier()
	default:
		return decimal.Zero, fmt.Errorf("unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *exprParser) parseNumber() (decimal.Decimal, error) {
	start := p.pos
	for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
		p.pos++
	}
	value, err := decimal.NewFromString(p.input[start:p.pos])
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad number %q", p.input[start:p.pos])
	}
	return value, nil
}

func (p *exprParser) parseIdentifier() (decimal.Decimal, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	name := p.input[start:p.pos]
	value, ok := p.vars[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown identifier %q", name)
	}
	return value, nil
}
