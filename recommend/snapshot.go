package recommend

import (
	"context"
	"sync"

	"showroom/inventory"
)

type snapshotKey struct{}

type snapshotFunc func() ([]inventory.Record, error)

// withSnapshot attaches a once-only catalog load to ctx. Every stage of one query that
// needs the catalog sees the same records from a single fetch.
func withSnapshot(ctx context.Context, catalog inventory.CatalogLoader) (context.Context, snapshotFunc) {
	load := snapshotFunc(sync.OnceValues(func() ([]inventory.Record, error) {
		return catalog.Load(ctx)
	}))
	return context.WithValue(ctx, snapshotKey{}, load), load
}

// catalogFor returns the query's shared snapshot, or loads from catalog when ctx has none.
func catalogFor(ctx context.Context, catalog inventory.CatalogLoader) ([]inventory.Record, error) {
	if load, ok := ctx.Value(snapshotKey{}).(snapshotFunc); ok {
		return load()
	}
	return catalog.Load(ctx)
}
