package analytics

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// VersionParams filters version-tracking tools.
type VersionParams struct {
	Range      dateutil.Range
	App        string
	MinDaysOld int
	Today      string
	Limit      int
}

// canonVersion normalizes a bare "1.2.3" to semver's "v1.2.3"
// form, returning "" when the result is not valid semver.
func canonVersion(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// versionBehind reports whether used trails current. When both
// parse as semver a strictly newer used version is not behind;
// everything else that differs from the catalog string counts as
// behind, since current_version is the only reference point. That
// includes canonically equal spellings like "v1.0.0" vs "1.0.0":
// the reported string does not match what the catalog ships.
func versionBehind(used, current string) bool {
	if used == current {
		return false
	}
	cu, cc := canonVersion(used), canonVersion(current)
	if cu != "" && cc != "" {
		if c := semver.Compare(cu, cc); c != 0 {
			return c < 0
		}
	}
	return true
}

// VersionDistRow is one (application, version) slice of usage.
type VersionDistRow struct {
	ApplicationName string  `json:"application_name"`
	Version         string  `json:"application_version"`
	Sessions        int     `json:"sessions"`
	UniqueUsers     int     `json:"unique_users"`
	PctOfAppUsers   float64 `json:"pct_of_app_users"`
	IsCurrent       bool    `json:"is_current"`
}

// VersionDistribution breaks each application's usage down by
// reported version, flagging the catalog's current version.
func VersionDistribution(
	ctx context.Context, st Store, p VersionParams,
) ([]VersionDistRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}
	idx, err := catalogIndex(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	type key struct{ app, version string }
	// distinct (user, date) pairs per version = session count
	sessions := make(map[key]map[string]bool)
	users := make(map[key]map[string]bool)
	appUsers := make(map[string]map[string]bool)
	for _, e := range events {
		k := key{e.ApplicationName, e.AppVersion}
		if sessions[k] == nil {
			sessions[k] = make(map[string]bool)
		}
		sessions[k][e.User+"\x00"+e.LogDate] = true
		if users[k] == nil {
			users[k] = make(map[string]bool)
		}
		users[k][e.User] = true
		if appUsers[e.ApplicationName] == nil {
			appUsers[e.ApplicationName] = make(map[string]bool)
		}
		appUsers[e.ApplicationName][e.User] = true
	}

	keys := make([]key, 0, len(sessions))
	for k := range sessions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].app != keys[j].app {
			return keys[i].app < keys[j].app
		}
		return keys[i].version < keys[j].version
	})

	rows := make([]VersionDistRow, 0, len(keys))
	for _, k := range keys {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		pct := 0.0
		if n := len(appUsers[k.app]); n > 0 {
			pct = 100 * float64(len(users[k])) / float64(n)
		}
		current := ""
		if c, ok := idx[k.app]; ok {
			current = c.CurrentVersion
		}
		rows = append(rows, VersionDistRow{
			ApplicationName: k.app,
			Version:         k.version,
			Sessions:        len(sessions[k]),
			UniqueUsers:     len(users[k]),
			PctOfAppUsers:   round2(pct),
			IsCurrent:       current != "" && k.version == current,
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"applications": len(appUsers),
	}
	return rows, summary, nil
}

// OutdatedVersionRow is one stale version still in use.
type OutdatedVersionRow struct {
	ApplicationName string `json:"application_name"`
	Version         string `json:"application_version"`
	CurrentVersion  string `json:"current_version"`
	UniqueUsers     int    `json:"unique_users"`
	FirstSeen       string `json:"first_seen"`
	DaysOld         int    `json:"days_old"`
}

// OutdatedVersions lists versions that differ from the catalog's
// current_version and whose first observed usage is older than
// MinDaysOld. Applications absent from the catalog cannot be
// judged outdated and are skipped.
func OutdatedVersions(
	ctx context.Context, st Store, p VersionParams,
) ([]OutdatedVersionRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{App: p.App})
	if err != nil {
		return nil, nil, err
	}
	idx, err := catalogIndex(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	type key struct{ app, version string }
	firstSeen := make(map[key]string)
	users := make(map[key]map[string]bool)
	for _, e := range events {
		k := key{e.ApplicationName, e.AppVersion}
		if d, ok := firstSeen[k]; !ok || e.LogDate < d {
			firstSeen[k] = e.LogDate
		}
		if users[k] == nil {
			users[k] = make(map[string]bool)
		}
		users[k][e.User] = true
	}

	keys := make([]key, 0, len(firstSeen))
	for k := range firstSeen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].app != keys[j].app {
			return keys[i].app < keys[j].app
		}
		return keys[i].version < keys[j].version
	})

	rows := make([]OutdatedVersionRow, 0)
	for _, k := range keys {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		entry, ok := idx[k.app]
		if !ok || entry.CurrentVersion == "" {
			continue
		}
		if !versionBehind(k.version, entry.CurrentVersion) {
			continue
		}
		age := dateutil.DaysBetween(firstSeen[k], p.Today) - 1
		if age <= p.MinDaysOld {
			continue
		}
		rows = append(rows, OutdatedVersionRow{
			ApplicationName: k.app,
			Version:         k.version,
			CurrentVersion:  entry.CurrentVersion,
			UniqueUsers:     len(users[k]),
			FirstSeen:       firstSeen[k],
			DaysOld:         age,
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"min_days_old":      p.MinDaysOld,
		"outdated_versions": len(rows),
	}
	return rows, summary, nil
}

// VersionUsageRow is one version's share of an application's usage.
type VersionUsageRow struct {
	Version    string  `json:"application_version"`
	TotalHours float64 `json:"total_hours"`
	PctOfTotal float64 `json:"percentage_of_total"`
	IsCurrent  bool    `json:"is_current"`
}

// VersionUsageBreakdown reports one application's usage hours per
// version.
func VersionUsageBreakdown(
	ctx context.Context, st Store, p VersionParams,
) ([]VersionUsageRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}
	idx, err := catalogIndex(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	current := ""
	if c, ok := idx[p.App]; ok {
		current = c.CurrentVersion
	}

	seconds := GroupSum(events,
		func(e store.UsageEvent) string { return e.AppVersion },
		func(e store.UsageEvent) float64 { return float64(e.DurationSeconds) },
	)
	pcts := PercentageBreakdown(seconds)

	rows := make([]VersionUsageRow, 0, len(seconds))
	for _, kv := range Rank(seconds) {
		rows = append(rows, VersionUsageRow{
			Version:    kv.Key,
			TotalHours: round2(kv.Value / 3600),
			PctOfTotal: round2(pcts[kv.Key]),
			IsCurrent:  current != "" && kv.Key == current,
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"application_name": p.App,
		"current_version":  current,
		"versions":         len(seconds),
	}
	return rows, summary, nil
}

// LegacySplitRow is one half of the legacy/modern usage split.
type LegacySplitRow struct {
	Segment     string  `json:"segment"` // legacy or modern
	TotalHours  float64 `json:"total_hours"`
	Events      int     `json:"events"`
	UniqueUsers int     `json:"unique_users"`
	UniqueApps  int     `json:"unique_apps"`
	PctOfHours  float64 `json:"pct_of_hours"`
}

// LegacyVsModern splits usage by the legacy_app flag.
func LegacyVsModern(
	ctx context.Context, st Store, p VersionParams,
) ([]LegacySplitRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	type agg struct {
		seconds int64
		events  int
		users   map[string]bool
		apps    map[string]bool
	}
	segs := map[string]*agg{
		"legacy": {users: map[string]bool{}, apps: map[string]bool{}},
		"modern": {users: map[string]bool{}, apps: map[string]bool{}},
	}
	for _, e := range events {
		name := "modern"
		if e.LegacyApp {
			name = "legacy"
		}
		a := segs[name]
		a.seconds += e.DurationSeconds
		a.events++
		a.users[e.User] = true
		a.apps[e.ApplicationName] = true
	}

	totalSecs := segs["legacy"].seconds + segs["modern"].seconds
	rows := make([]LegacySplitRow, 0, 2)
	for _, name := range []string{"legacy", "modern"} {
		a := segs[name]
		pct := 0.0
		if totalSecs > 0 {
			pct = 100 * float64(a.seconds) / float64(totalSecs)
		}
		rows = append(rows, LegacySplitRow{
			Segment:     name,
			TotalHours:  hours(a.seconds),
			Events:      a.events,
			UniqueUsers: len(a.users),
			UniqueApps:  len(a.apps),
			PctOfHours:  round2(pct),
		})
	}

	summary := map[string]any{
		"total_hours": hours(totalSecs),
	}
	return rows, summary, nil
}
