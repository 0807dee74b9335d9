package analytics

import (
	"context"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// limitRows truncates rows to limit when limit is positive.
func limitRows[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// AppMeta is catalog display metadata joined onto usage rows.
// Applications missing from the catalog keep null metadata; they
// are never dropped from results.
type AppMeta struct {
	AppType        *string `json:"app_type"`
	Publisher      *string `json:"publisher"`
	CurrentVersion *string `json:"current_version"`
}

func metaFor(idx map[string]store.CatalogEntry, app string) AppMeta {
	c, ok := idx[app]
	if !ok {
		return AppMeta{}
	}
	return AppMeta{
		AppType:        &c.AppType,
		Publisher:      &c.Publisher,
		CurrentVersion: &c.CurrentVersion,
	}
}

// AppUsageRow is one application's usage within a range.
type AppUsageRow struct {
	ApplicationName string  `json:"application_name"`
	TotalSeconds    int64   `json:"total_seconds"`
	TotalHours      float64 `json:"total_hours"`
	Sessions        int     `json:"sessions"`
	UniqueUsers     int     `json:"unique_users"`
	PctOfTotal      float64 `json:"percentage_of_total"`
	AppMeta
}

// UsageStatsParams filters per-application usage aggregation.
type UsageStatsParams struct {
	Range    dateutil.Range
	User     string
	App      string
	Platform string
	TopN     int // 0 = no top-N truncation
	Limit    int
}

// appUsageRows builds the shared per-application usage rows used by
// usage_time_stats and top_apps_by_usage.
func appUsageRows(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]AppUsageRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To,
		User: p.User, App: p.App, Platform: p.Platform,
	})
	if err != nil {
		return nil, nil, err
	}
	idx, err := catalogIndex(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	sessions := Sessions(events)
	seconds := make(map[string]int64)
	sessionCount := make(map[string]int)
	users := make(map[string]map[string]bool)
	for _, s := range sessions {
		seconds[s.ApplicationName] += s.TotalSeconds
		sessionCount[s.ApplicationName]++
		if users[s.ApplicationName] == nil {
			users[s.ApplicationName] = make(map[string]bool)
		}
		users[s.ApplicationName][s.User] = true
	}

	totals := make(map[string]float64, len(seconds))
	for app, secs := range seconds {
		totals[app] = float64(secs)
	}
	pcts := PercentageBreakdown(totals)

	ranked := Rank(totals)
	if p.TopN > 0 {
		ranked, err = TopN(totals, p.TopN)
		if err != nil {
			return nil, nil, err
		}
	}

	var grandSeconds int64
	for _, secs := range seconds {
		grandSeconds += secs
	}

	rows := make([]AppUsageRow, 0, len(ranked))
	for _, kv := range ranked {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		app := kv.Key
		rows = append(rows, AppUsageRow{
			ApplicationName: app,
			TotalSeconds:    seconds[app],
			TotalHours:      hours(seconds[app]),
			Sessions:        sessionCount[app],
			UniqueUsers:     len(users[app]),
			PctOfTotal:      round2(pcts[app]),
			AppMeta:         metaFor(idx, app),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"total_applications": len(seconds),
		"total_hours":        hours(grandSeconds),
		"total_sessions":     len(sessions),
	}
	return rows, summary, nil
}

// UsageTimeStats reports per-application usage totals with catalog
// metadata and percentage-of-total.
func UsageTimeStats(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]AppUsageRow, map[string]any, error) {
	p.TopN = 0
	return appUsageRows(ctx, st, p)
}

// TopAppsByUsage ranks applications by total usage hours.
func TopAppsByUsage(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]AppUsageRow, map[string]any, error) {
	if p.TopN <= 0 {
		p.TopN = 10
	}
	return appUsageRows(ctx, st, p)
}

// AppUserCountRow is one application's distinct-user count.
type AppUserCountRow struct {
	ApplicationName string  `json:"application_name"`
	UniqueUsers     int     `json:"unique_users"`
	PctOfUsers      float64 `json:"percentage_of_users"`
	AppMeta
}

// appUserCounts counts distinct users per application. Distinctness
// is computed via a per-application user set, not a sum.
func appUserCounts(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]AppUserCountRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To,
		App: p.App, Platform: p.Platform,
	})
	if err != nil {
		return nil, nil, err
	}
	idx, err := catalogIndex(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	perApp := make(map[string]map[string]bool)
	allUsers := make(map[string]bool)
	for _, e := range events {
		if perApp[e.ApplicationName] == nil {
			perApp[e.ApplicationName] = make(map[string]bool)
		}
		perApp[e.ApplicationName][e.User] = true
		allUsers[e.User] = true
	}

	counts := make(map[string]float64, len(perApp))
	for app, set := range perApp {
		counts[app] = float64(len(set))
	}

	ranked := Rank(counts)
	if p.TopN > 0 {
		ranked, err = TopN(counts, p.TopN)
		if err != nil {
			return nil, nil, err
		}
	}

	rows := make([]AppUserCountRow, 0, len(ranked))
	for _, kv := range ranked {
		pct := 0.0
		if len(allUsers) > 0 {
			pct = 100 * kv.Value / float64(len(allUsers))
		}
		rows = append(rows, AppUserCountRow{
			ApplicationName: kv.Key,
			UniqueUsers:     int(kv.Value),
			PctOfUsers:      round2(pct),
			AppMeta:         metaFor(idx, kv.Key),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"total_applications": len(perApp),
		"total_users":        len(allUsers),
	}
	return rows, summary, nil
}

// UserCountStats reports distinct-user counts per application.
func UserCountStats(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]AppUserCountRow, map[string]any, error) {
	p.TopN = 0
	return appUserCounts(ctx, st, p)
}

// TopAppsByUsers ranks applications by distinct-user count.
func TopAppsByUsers(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]AppUserCountRow, map[string]any, error) {
	if p.TopN <= 0 {
		p.TopN = 10
	}
	return appUserCounts(ctx, st, p)
}

// AvgUsageRow is the average daily usage for one (user, app) pair.
// The average divides by distinct active days, not event count:
// "average per day of use", not "average per event".
type AvgUsageRow struct {
	User             string  `json:"user"`
	ApplicationName  string  `json:"application_name"`
	TotalSeconds     int64   `json:"total_seconds"`
	ActiveDays       int     `json:"active_days"`
	AvgSecondsPerDay float64 `json:"avg_seconds_per_day"`
	AvgHoursPerDay   float64 `json:"avg_hours_per_day"`
}

// AverageUsageTime reports average daily usage per (user, app).
func AverageUsageTime(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]AvgUsageRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, User: p.User, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	type pair struct{ user, app string }
	seconds := make(map[pair]int64)
	days := make(map[pair]int)
	var order []pair
	for _, s := range sessions {
		k := pair{s.User, s.ApplicationName}
		if _, seen := seconds[k]; !seen {
			order = append(order, k)
		}
		seconds[k] += s.TotalSeconds
		days[k]++ // one session per (user, app, date)
	}

	rows := make([]AvgUsageRow, 0, len(order))
	for _, k := range order {
		avg := float64(seconds[k]) / float64(days[k])
		rows = append(rows, AvgUsageRow{
			User:             k.user,
			ApplicationName:  k.app,
			TotalSeconds:     seconds[k],
			ActiveDays:       days[k],
			AvgSecondsPerDay: round2(avg),
			AvgHoursPerDay:   round2(avg / 3600),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"pairs": len(order),
	}
	return rows, summary, nil
}

// PlatformUsageRow is usage aggregated by platform.
type PlatformUsageRow struct {
	Platform    string  `json:"platform"`
	TotalHours  float64 `json:"total_hours"`
	Events      int     `json:"events"`
	UniqueUsers int     `json:"unique_users"`
	PctOfTotal  float64 `json:"percentage_of_total"`
}

// PlatformUsageStats breaks usage down by platform.
func PlatformUsageStats(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]PlatformUsageRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	seconds := make(map[string]float64)
	counts := make(map[string]int)
	users := make(map[string]map[string]bool)
	for _, e := range events {
		seconds[e.Platform] += float64(e.DurationSeconds)
		counts[e.Platform]++
		if users[e.Platform] == nil {
			users[e.Platform] = make(map[string]bool)
		}
		users[e.Platform][e.User] = true
	}
	pcts := PercentageBreakdown(seconds)

	rows := make([]PlatformUsageRow, 0, len(seconds))
	for _, kv := range Rank(seconds) {
		rows = append(rows, PlatformUsageRow{
			Platform:    kv.Key,
			TotalHours:  round2(kv.Value / 3600),
			Events:      counts[kv.Key],
			UniqueUsers: len(users[kv.Key]),
			PctOfTotal:  round2(pcts[kv.Key]),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"platforms": len(seconds),
	}
	return rows, summary, nil
}

// PeriodTotals summarizes all usage within one range.
type PeriodTotals struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	TotalHours     float64 `json:"total_hours"`
	Events         int     `json:"events"`
	Sessions       int     `json:"sessions"`
	UniqueUsers    int     `json:"unique_users"`
	UniqueApps     int     `json:"unique_apps"`
	ActiveDays     int     `json:"active_days"`
	AvgHoursPerDay float64 `json:"avg_hours_per_day"`
}

// TotalUsagePeriod reports aggregate usage for the whole range.
func TotalUsagePeriod(
	ctx context.Context, st Store, p UsageStatsParams,
) ([]PeriodTotals, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To,
		User: p.User, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	totals := periodTotals(p.Range, events)
	return []PeriodTotals{totals}, nil, nil
}

func periodTotals(
	r dateutil.Range, events []store.UsageEvent,
) PeriodTotals {
	var secs int64
	users := make(map[string]bool)
	apps := make(map[string]bool)
	days := make(map[string]bool)
	for _, e := range events {
		secs += e.DurationSeconds
		users[e.User] = true
		apps[e.ApplicationName] = true
		days[e.LogDate] = true
	}

	t := PeriodTotals{
		From:        r.From,
		To:          r.To,
		TotalHours:  hours(secs),
		Events:      len(events),
		Sessions:    len(Sessions(events)),
		UniqueUsers: len(users),
		UniqueApps:  len(apps),
		ActiveDays:  len(days),
	}
	if n := len(days); n > 0 {
		t.AvgHoursPerDay = round2(float64(secs) / 3600 / float64(n))
	}
	return t
}
