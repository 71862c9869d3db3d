package live

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// ErrUnknownProject is returned when a selection names a project key that is not stored.
var ErrUnknownProject = errors.New("unknown project")

// Selection picks the components to refresh. An empty ProjectKey spans every
// project; empty Patterns select every component in scope.
type Selection struct {
	ProjectKey string
	Patterns   []string // glob patterns over component keys
}

// SelectBatches resolves a selection into one batch of component ids per
// project root, ordered by root id. Batches never share a root, so they can
// be refreshed in parallel with RefreshAll.
func SelectBatches(ctx context.Context, store contract.MeasureStore, sel Selection) ([][]string, error) {
	globs, err := contract.CompileKeyPatterns(sel.Patterns)
	if err != nil {
		return nil, err
	}

	projectUUID := ""
	if sel.ProjectKey != "" {
		root, ok, err := store.FindComponentByKey(ctx, sel.ProjectKey)
		if err != nil {
			return nil, fmt.Errorf("failed to look up project %s: %w", sel.ProjectKey, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProject, sel.ProjectKey)
		}
		projectUUID = root.ProjectUUID
	}

	comps, err := store.ListComponents(ctx, projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}

	byRoot := map[string][]string{}
	for _, c := range comps {
		if len(globs) > 0 && !contract.MatchesAny(c.Key, globs) {
			continue
		}
		byRoot[c.ProjectUUID] = append(byRoot[c.ProjectUUID], c.UUID)
	}

	roots := make([]string, 0, len(byRoot))
	for root := range byRoot {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	batches := make([][]string, 0, len(roots))
	for _, root := range roots {
		ids := byRoot[root]
		sort.Strings(ids)
		batches = append(batches, ids)
	}
	return batches, nil
}

// Results summarizes events for output.
func Results(events []ChangeEvent) []schema.RefreshResult {
	out := make([]schema.RefreshResult, 0, len(events))
	for _, e := range events {
		out = append(out, e.Result())
	}
	return out
}
