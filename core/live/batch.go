package live

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RefreshAll runs one Refresh per batch with at most workers in flight. The
// first failure cancels the batches that have not started. Events keep the
// order of the batches.
func (c *Computer) RefreshAll(ctx context.Context, batches [][]string, workers int) ([]ChangeEvent, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([][]ChangeEvent, len(batches))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, batch := range batches {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			events, err := c.Refresh(gCtx, batch)
			if err != nil {
				return err
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []ChangeEvent
	for _, events := range results {
		out = append(out, events...)
	}
	return out, nil
}
