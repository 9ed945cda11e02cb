package projection

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sableward/mercantile/internal/eventstore"
)

// rebuildConcurrency caps how many order streams replay at once.
const rebuildConcurrency = 8

// Rebuild replays every per-order derived stream through the applier,
// reconstructing the read model from history. Events within one order replay
// in link order; orders replay concurrently since they never share rows.
// The target stores should be empty, or at least consistent with history.
func Rebuild(ctx context.Context, store *eventstore.Store, a Applier) error {
	streams, err := store.Streams(ctx, "Orders$")
	if err != nil {
		return fmt.Errorf("list order streams: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildConcurrency)
	for _, stream := range streams {
		g.Go(func() error {
			events, err := store.Read(ctx, stream)
			if err != nil {
				return fmt.Errorf("read %s: %w", stream, err)
			}
			for _, evt := range events {
				if err := a.Apply(ctx, evt); err != nil {
					return fmt.Errorf("replay %s: %w", stream, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
