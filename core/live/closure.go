package live

import (
	"context"
	"fmt"
	"sort"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// groupByRoot buckets components by the project root they belong to.
func groupByRoot(comps []schema.Component) map[string][]schema.Component {
	out := map[string][]schema.Component{}
	for _, c := range comps {
		root := c.ProjectUUID
		if root == "" {
			root = c.UUID
		}
		out[root] = append(out[root], c)
	}
	return out
}

// loadClosure returns the components plus all their ancestors, deduplicated
// and sorted so every child comes before its parent.
func loadClosure(ctx context.Context, tx contract.MeasureTx, touched []schema.Component) ([]schema.Component, error) {
	byUUID := make(map[string]schema.Component, len(touched))
	var pending []string
	visit := func(c schema.Component) {
		if _, ok := byUUID[c.UUID]; ok {
			return
		}
		byUUID[c.UUID] = c
		if c.ParentUUID != nil {
			pending = append(pending, *c.ParentUUID)
		}
	}
	for _, c := range touched {
		visit(c)
	}

	for len(pending) > 0 {
		var wanted []string
		for _, id := range pending {
			if _, ok := byUUID[id]; !ok {
				wanted = append(wanted, id)
			}
		}
		pending = nil
		if len(wanted) == 0 {
			break
		}
		parents, err := tx.SelectComponentsByUUIDs(ctx, wanted)
		if err != nil {
			return nil, fmt.Errorf("failed to load ancestors: %w", err)
		}
		if len(parents) == 0 {
			return nil, fmt.Errorf("ancestors %v are missing from the component tree", wanted)
		}
		for _, p := range parents {
			visit(p)
		}
	}

	closure := make([]schema.Component, 0, len(byUUID))
	for _, c := range byUUID {
		closure = append(closure, c)
	}
	sortBottomUp(closure)
	return closure, nil
}

// sortBottomUp orders components by qualifier rank, then deepest first, then id.
func sortBottomUp(comps []schema.Component) {
	sort.Slice(comps, func(i, j int) bool {
		a, b := comps[i], comps[j]
		if ra, rb := a.Qualifier.Rank(), b.Qualifier.Rank(); ra != rb {
			return ra < rb
		}
		if da, db := a.Depth(), b.Depth(); da != db {
			return da > db
		}
		return a.UUID < b.UUID
	})
}

func findComponent(comps []schema.Component, uuid string) (schema.Component, bool) {
	for _, c := range comps {
		if c.UUID == uuid {
			return c, true
		}
	}
	return schema.Component{}, false
}

func componentUUIDsOf(comps []schema.Component) []string {
	out := make([]string, len(comps))
	for i, c := range comps {
		out[i] = c.UUID
	}
	return out
}

func metricKeysOf(metrics []schema.Metric) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.Key
	}
	return out
}
