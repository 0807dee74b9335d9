package analytics

import (
	"context"
	"sort"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// CatalogParams filters catalog-driven tools.
type CatalogParams struct {
	App          string
	AppType      string
	Publisher    string
	TrackingOnly bool
	Days         int    // recency window for recent_releases
	Today        string // reference date
	TopN         int
	Limit        int
}

// ListApplications lists catalog entries matching the filter.
func ListApplications(
	ctx context.Context, st Store, p CatalogParams,
) ([]store.CatalogEntry, map[string]any, error) {
	entries, err := fetchCatalog(ctx, st, store.CatalogFilter{
		App:          p.App,
		AppType:      p.AppType,
		Publisher:    p.Publisher,
		TrackingOnly: p.TrackingOnly,
	})
	if err != nil {
		return nil, nil, err
	}
	if entries == nil {
		entries = []store.CatalogEntry{}
	}
	entries = limitRows(entries, p.Limit)
	summary := map[string]any{
		"applications": len(entries),
	}
	return entries, summary, nil
}

// AppDetails joins one catalog entry with its lifetime usage
// summary.
type AppDetails struct {
	store.CatalogEntry
	TotalHours  float64 `json:"total_hours"`
	UniqueUsers int     `json:"unique_users"`
	FirstUsed   string  `json:"first_used,omitempty"`
	LastUsed    string  `json:"last_used,omitempty"`
}

// AppDetailsFor returns catalog metadata and usage summary for one
// application. Missing from the catalog is an EmptyDataset error.
func AppDetailsFor(
	ctx context.Context, st Store, app string,
) ([]AppDetails, map[string]any, error) {
	entries, err := fetchCatalog(ctx, st, store.CatalogFilter{App: app})
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, EmptyDataset("application not in catalog: " + app)
	}

	events, err := fetchEvents(ctx, st, store.EventFilter{App: app})
	if err != nil {
		return nil, nil, err
	}

	d := AppDetails{CatalogEntry: entries[0]}
	var secs int64
	users := make(map[string]bool)
	for _, e := range events {
		secs += e.DurationSeconds
		users[e.User] = true
		if d.FirstUsed == "" || e.LogDate < d.FirstUsed {
			d.FirstUsed = e.LogDate
		}
		if e.LogDate > d.LastUsed {
			d.LastUsed = e.LogDate
		}
	}
	d.TotalHours = hours(secs)
	d.UniqueUsers = len(users)

	return []AppDetails{d}, nil, nil
}

// AppVersionsRow is the catalog vs observed version picture for
// one application.
type AppVersionsRow struct {
	ApplicationName  string   `json:"application_name"`
	CurrentVersion   string   `json:"current_version"`
	ObservedVersions []string `json:"observed_versions"`
}

// AppVersionsFor lists the versions observed in the usage log next
// to the catalog's current version.
func AppVersionsFor(
	ctx context.Context, st Store, app string,
) ([]AppVersionsRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{App: app})
	if err != nil {
		return nil, nil, err
	}
	idx, err := catalogIndex(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	for _, e := range events {
		if e.AppVersion != "" {
			seen[e.AppVersion] = true
		}
	}
	versions := sortedBuckets(seen)

	current := ""
	if c, ok := idx[app]; ok {
		current = c.CurrentVersion
	}
	row := AppVersionsRow{
		ApplicationName:  app,
		CurrentVersion:   current,
		ObservedVersions: versions,
	}
	return []AppVersionsRow{row}, nil, nil
}

// LegacyAppRow is one application flagged legacy in the event log.
type LegacyAppRow struct {
	ApplicationName string  `json:"application_name"`
	TotalHours      float64 `json:"total_hours"`
	UniqueUsers     int     `json:"unique_users"`
	AppMeta
}

// LegacyApps lists applications whose events carry the legacy
// flag, ranked by hours.
func LegacyApps(
	ctx context.Context, st Store, p CatalogParams,
) ([]LegacyAppRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{})
	if err != nil {
		return nil, nil, err
	}
	idx, err := catalogIndex(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	seconds := make(map[string]float64)
	users := make(map[string]map[string]bool)
	for _, e := range events {
		if !e.LegacyApp {
			continue
		}
		seconds[e.ApplicationName] += float64(e.DurationSeconds)
		if users[e.ApplicationName] == nil {
			users[e.ApplicationName] = make(map[string]bool)
		}
		users[e.ApplicationName][e.User] = true
	}

	rows := make([]LegacyAppRow, 0, len(seconds))
	for _, kv := range Rank(seconds) {
		rows = append(rows, LegacyAppRow{
			ApplicationName: kv.Key,
			TotalHours:      round2(kv.Value / 3600),
			UniqueUsers:     len(users[kv.Key]),
			AppMeta:         metaFor(idx, kv.Key),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"legacy_applications": len(seconds),
	}
	return rows, summary, nil
}

// RecentReleases lists catalog entries released within the last
// Days days of Today, newest first.
func RecentReleases(
	ctx context.Context, st Store, p CatalogParams,
) ([]store.CatalogEntry, map[string]any, error) {
	entries, err := fetchCatalog(ctx, st, store.CatalogFilter{})
	if err != nil {
		return nil, nil, err
	}

	cutoff := dateutil.AddDays(p.Today, -p.Days)
	recent := make([]store.CatalogEntry, 0)
	for _, c := range entries {
		if c.ReleasedDate != "" && c.ReleasedDate >= cutoff &&
			c.ReleasedDate <= p.Today {
			recent = append(recent, c)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		if recent[i].ReleasedDate != recent[j].ReleasedDate {
			return recent[i].ReleasedDate > recent[j].ReleasedDate
		}
		return recent[i].AppName < recent[j].AppName
	})
	recent = limitRows(recent, p.Limit)

	summary := map[string]any{
		"days":   p.Days,
		"cutoff": cutoff,
	}
	return recent, summary, nil
}

// PublisherRow is one publisher's aggregate across its catalog
// apps.
type PublisherRow struct {
	Publisher  string  `json:"publisher"`
	Apps       int     `json:"apps"`
	TotalHours float64 `json:"total_hours"`
}

// TopPublishers ranks publishers by total usage hours across their
// catalog applications.
func TopPublishers(
	ctx context.Context, st Store, p CatalogParams,
) ([]PublisherRow, map[string]any, error) {
	entries, err := fetchCatalog(ctx, st, store.CatalogFilter{})
	if err != nil {
		return nil, nil, err
	}
	events, err := fetchEvents(ctx, st, store.EventFilter{})
	if err != nil {
		return nil, nil, err
	}

	publisherOf := make(map[string]string, len(entries))
	appCount := make(map[string]int)
	for _, c := range entries {
		publisherOf[c.AppName] = c.Publisher
		appCount[c.Publisher]++
	}

	seconds := make(map[string]float64)
	for _, e := range events {
		pub, ok := publisherOf[e.ApplicationName]
		if !ok {
			continue // uncataloged apps have no publisher
		}
		seconds[pub] += float64(e.DurationSeconds)
	}
	// Publishers with catalog apps but no usage still rank, at zero.
	for pub := range appCount {
		if _, ok := seconds[pub]; !ok {
			seconds[pub] = 0
		}
	}

	ranked, err := TopN(seconds, p.TopN)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]PublisherRow, 0, len(ranked))
	for _, kv := range ranked {
		rows = append(rows, PublisherRow{
			Publisher:  kv.Key,
			Apps:       appCount[kv.Key],
			TotalHours: round2(kv.Value / 3600),
		})
	}

	summary := map[string]any{
		"publishers": len(seconds),
	}
	return rows, summary, nil
}

// TrackingStatusRow is one application's tracking configuration.
type TrackingStatusRow struct {
	AppName        string `json:"app_name"`
	EnableTracking bool   `json:"enable_tracking"`
	TrackUsage     bool   `json:"track_usage"`
	TrackLocation  bool   `json:"track_location"`
	TrackCM        bool   `json:"track_cm"`
	TrackIntr      int64  `json:"track_intr"`
}

// TrackingStatus reports tracking flags for catalog entries.
func TrackingStatus(
	ctx context.Context, st Store, p CatalogParams,
) ([]TrackingStatusRow, map[string]any, error) {
	entries, err := fetchCatalog(ctx, st, store.CatalogFilter{App: p.App})
	if err != nil {
		return nil, nil, err
	}

	rows := make([]TrackingStatusRow, 0, len(entries))
	enabled := 0
	for _, c := range entries {
		if c.EnableTracking {
			enabled++
		}
		rows = append(rows, TrackingStatusRow{
			AppName:        c.AppName,
			EnableTracking: c.EnableTracking,
			TrackUsage:     c.TrackUsage,
			TrackLocation:  c.TrackLocation,
			TrackCM:        c.TrackCM,
			TrackIntr:      c.TrackIntr,
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"applications":     len(entries),
		"tracking_enabled": enabled,
	}
	return rows, summary, nil
}
