package engine

import (
	"context"
	"strings"

	"github.com/mmdatafocus/increments_backend/models"
)

const draftModelSuffix = "Draft"

// ResolveFieldPath maps (model name, display name) to the canonical storage
// path via the cached FieldReference map.
func ResolveFieldPath(ctx context.Context, modelName string, fieldName string) (string, error) {
	pathMap, err := models.GetFieldReferenceMap(ctx)
	if err != nil {
		return "", err
	}
	return lookupFieldPath(pathMap, modelName, fieldName)
}

// lookupFieldPath is the pure lookup rule: try the model name as written,
// then the draft-suffixed spelling unless the name already carries the
// suffix. Both spellings resolve to the same canonical path; draft
// redirection happens in the accessor, not in the path.
func lookupFieldPath(pathMap map[string]string, modelName string, fieldName string) (string, error) {
	if path, ok := pathMap[modelName+"|"+fieldName]; ok {
		return path, nil
	}
	if !strings.HasSuffix(modelName, draftModelSuffix) {
		if path, ok := pathMap[modelName+draftModelSuffix+"|"+fieldName]; ok {
			return path, nil
		}
	}
	return "", &UnknownFieldReferenceError{ModelName: modelName, FieldName: fieldName}
}
