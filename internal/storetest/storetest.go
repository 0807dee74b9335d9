// Package storetest provides an in-memory analytics.Store for
// tests, mirroring the SQLite store's filter and ordering
// semantics without touching disk.
package storetest

import (
	"context"
	"sort"

	"github.com/usagelens/usagelens/internal/store"
)

// Fake is an in-memory Store. When Err is set, every query fails
// with it, exercising storage-failure paths.
type Fake struct {
	Events  []store.UsageEvent
	Catalog []store.CatalogEntry
	Err     error
}

// QueryEvents filters and orders events the way the SQLite store
// does: (log_date, user, application_name).
func (f *Fake) QueryEvents(
	_ context.Context, filter store.EventFilter,
) ([]store.UsageEvent, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []store.UsageEvent
	for _, e := range f.Events {
		if e.DurationSeconds < 0 {
			continue
		}
		if filter.From != "" && e.LogDate < filter.From {
			continue
		}
		if filter.To != "" && e.LogDate > filter.To {
			continue
		}
		if filter.User != "" && e.User != filter.User {
			continue
		}
		if filter.App != "" && e.ApplicationName != filter.App {
			continue
		}
		if filter.Platform != "" && e.Platform != filter.Platform {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LogDate != out[j].LogDate {
			return out[i].LogDate < out[j].LogDate
		}
		if out[i].User != out[j].User {
			return out[i].User < out[j].User
		}
		return out[i].ApplicationName < out[j].ApplicationName
	})
	return out, nil
}

// QueryCatalog filters and orders catalog entries by app_name.
func (f *Fake) QueryCatalog(
	_ context.Context, filter store.CatalogFilter,
) ([]store.CatalogEntry, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []store.CatalogEntry
	for _, c := range f.Catalog {
		if filter.App != "" && c.AppName != filter.App {
			continue
		}
		if filter.AppType != "" && c.AppType != filter.AppType {
			continue
		}
		if filter.Publisher != "" && c.Publisher != filter.Publisher {
			continue
		}
		if filter.TrackingOnly && !c.EnableTracking {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AppName < out[j].AppName
	})
	return out, nil
}

// Event builds a minimal usage event for tests.
func Event(
	user, app, date string, seconds int64,
) store.UsageEvent {
	return store.UsageEvent{
		User:            user,
		ApplicationName: app,
		LogDate:         date,
		DurationSeconds: seconds,
		Platform:        "windows",
	}
}
