package projects

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/wI2L/jsondiff"
)

// Change is one field-level difference of an edit, for the confirmation screen.
type Change struct {
	Field string
	Op    string
	Old   any
	New   any
}

var ignoredPaths = []string{"/id", "/created_at", "/updated_at", "/progress"}

// Diff returns the JSON Patch turning before into after. Bookkeeping fields are ignored.
func Diff(before, after models.Project) (jsondiff.Patch, error) {
	patch, err := jsondiff.Compare(before, after, jsondiff.Ignores(ignoredPaths...))
	if err != nil {
		return nil, fmt.Errorf("failed to diff project: %w", err)
	}
	return patch, nil
}

// Changes flattens a patch into field changes. Nested paths use dots, as in seats_by_type.UI.
func Changes(patch jsondiff.Patch) []Change {
	changes := make([]Change, 0, len(patch))
	for _, op := range patch {
		if op.Type == jsondiff.OperationTest {
			continue
		}
		changes = append(changes, Change{
			Field: strings.ReplaceAll(strings.TrimPrefix(op.Path, "/"), "/", "."),
			Op:    op.Type,
			Old:   op.OldValue,
			New:   op.Value,
		})
	}
	return changes
}

// PatchBody builds the partial update for the backend: the full new value of every
// top-level field the patch touches.
func PatchBody(after models.Project, patch jsondiff.Patch) (map[string]any, error) {
	raw, err := json.Marshal(after)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	var fields map[string]any
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}

	body := make(map[string]any)
	for _, op := range patch {
		top, _, _ := strings.Cut(strings.TrimPrefix(op.Path, "/"), "/")
		if top == "" {
			continue
		}
		body[top] = fields[top]
	}
	return body, nil
}
