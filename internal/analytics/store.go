// Package analytics implements the usage-analytics query engine:
// session reconstruction over the raw event log, shared aggregation
// primitives, and the metric tools built from them. Every tool is a
// pure function of its parameters and store contents; the package
// holds no state between invocations and never writes.
package analytics

import (
	"context"

	"github.com/usagelens/usagelens/internal/store"
)

// Store is the read-only storage collaborator the engine queries.
// Filters are structured predicates; the implementation translates
// them to its own query syntax.
type Store interface {
	QueryEvents(ctx context.Context, f store.EventFilter) ([]store.UsageEvent, error)
	QueryCatalog(ctx context.Context, f store.CatalogFilter) ([]store.CatalogEntry, error)
}

// fetchEvents reads events through the collaborator, classifying
// failures as Timeout or StorageUnavailable.
func fetchEvents(
	ctx context.Context, st Store, f store.EventFilter,
) ([]store.UsageEvent, error) {
	events, err := st.QueryEvents(ctx, f)
	if err != nil {
		return nil, storageErr(ctx, err)
	}
	return events, nil
}

// fetchCatalog reads catalog entries through the collaborator.
func fetchCatalog(
	ctx context.Context, st Store, f store.CatalogFilter,
) ([]store.CatalogEntry, error) {
	entries, err := st.QueryCatalog(ctx, f)
	if err != nil {
		return nil, storageErr(ctx, err)
	}
	return entries, nil
}

// catalogIndex returns the full catalog keyed by app_name.
func catalogIndex(
	ctx context.Context, st Store,
) (map[string]store.CatalogEntry, error) {
	entries, err := fetchCatalog(ctx, st, store.CatalogFilter{})
	if err != nil {
		return nil, err
	}
	idx := make(map[string]store.CatalogEntry, len(entries))
	for _, c := range entries {
		idx[c.AppName] = c
	}
	return idx, nil
}
