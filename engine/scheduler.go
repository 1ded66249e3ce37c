package engine

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/increments_backend/models"
)

// targetKey identifies a formula's output slot within a scope.
func targetKey(model, field string) string {
	return strings.ToLower(model) + "." + NormalizeFieldName(field)
}

// BuildEvaluationOrder sorts scope bindings so every formula runs after the
// formulas that produce its inputs. Only references whose target is computed
// by another binding in the same scope form edges; self-references do not.
// Bindings with equal depth keep their input order, which is the binding
// creation order. A cycle yields CyclicDependencyError naming the stuck
// targets.
func BuildEvaluationOrder(bindings []*models.FieldFormula) ([]*models.FieldFormula, error) {
	producers := map[string]int{}
	for i, binding := range bindings {
		if binding.Formula == nil {
			return nil, fmt.Errorf("field formula %d has no formula loaded", binding.ID)
		}
		producers[targetKey(binding.Formula.TargetModel, binding.Formula.TargetField)] = i
	}

	inDegree := make([]int, len(bindings))
	dependents := make([][]int, len(bindings))
	for i, binding := range bindings {
		refs, err := ParseReferences(ExpressionBody(binding.Formula.FormulaExpression))
		if err != nil {
			return nil, err
		}
		self := targetKey(binding.Formula.TargetModel, binding.Formula.TargetField)
		seen := map[int]bool{}
		for _, ref := range refs {
			key := targetKey(ref.ModelName, NormalizeFieldName(ref.FieldName))
			producer, ok := producers[key]
			if !ok || key == self || seen[producer] {
				continue
			}
			seen[producer] = true
			dependents[producer] = append(dependents[producer], i)
			inDegree[i]++
		}
	}

	queue := make([]int, 0, len(bindings))
	for i := range bindings {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]*models.FieldFormula, 0, len(bindings))
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		order = append(order, bindings[next])
		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(bindings) {
		var unresolved []string
		for i, binding := range bindings {
			if inDegree[i] > 0 {
				unresolved = append(unresolved, targetKey(binding.Formula.TargetModel, binding.Formula.TargetField))
			}
		}
		return nil, &CyclicDependencyError{Unresolved: unresolved}
	}
	return order, nil
}
