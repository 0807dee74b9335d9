package analytics

import (
	"context"
	"sort"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// TrendParams filters bucketed trend tools.
type TrendParams struct {
	Range  dateutil.Range
	Period string // day, week, month
	App    string
	User   string
	Limit  int
}

// TrendRow is one time bucket in a usage trend series.
type TrendRow struct {
	Bucket      string  `json:"bucket"`
	TotalHours  float64 `json:"total_hours"`
	Sessions    int     `json:"sessions"`
	UniqueUsers int     `json:"unique_users"`
	ChangePct   float64 `json:"change_pct"`
}

// sortedBuckets returns map keys in ascending order.
func sortedBuckets[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UsageTrends groups sessions into period buckets and reports
// hours, sessions, and distinct users per bucket with
// bucket-over-bucket percent change in hours.
func UsageTrends(
	ctx context.Context, st Store, p TrendParams,
) ([]TrendRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, User: p.User, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	type bucketAgg struct {
		seconds  int64
		sessions int
		users    map[string]bool
	}
	buckets := make(map[string]*bucketAgg)
	for _, s := range sessions {
		b := dateutil.Bucket(s.Date, p.Period)
		agg := buckets[b]
		if agg == nil {
			agg = &bucketAgg{users: make(map[string]bool)}
			buckets[b] = agg
		}
		agg.seconds += s.TotalSeconds
		agg.sessions++
		agg.users[s.User] = true
	}

	rows := make([]TrendRow, 0, len(buckets))
	var prevHours float64
	for i, b := range sortedBuckets(buckets) {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		agg := buckets[b]
		h := hours(agg.seconds)
		row := TrendRow{
			Bucket:      b,
			TotalHours:  h,
			Sessions:    agg.sessions,
			UniqueUsers: len(agg.users),
		}
		if i > 0 && prevHours > 0 {
			row.ChangePct = round2(100 * (h - prevHours) / prevHours)
		}
		prevHours = h
		rows = append(rows, row)
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"period":  p.Period,
		"buckets": len(buckets),
	}
	return rows, summary, nil
}

// DailyUsageTrend is UsageTrends fixed to day buckets.
func DailyUsageTrend(
	ctx context.Context, st Store, p TrendParams,
) ([]TrendRow, map[string]any, error) {
	p.Period = "day"
	return UsageTrends(ctx, st, p)
}

// ComparisonParams holds the two ranges for usage_comparison.
type ComparisonParams struct {
	RangeA dateutil.Range
	RangeB dateutil.Range
	App    string
	Limit  int
}

// ComparisonRow compares one application across two ranges.
type ComparisonRow struct {
	ApplicationName string  `json:"application_name"`
	HoursA          float64 `json:"hours_first_period"`
	HoursB          float64 `json:"hours_second_period"`
	ChangePct       float64 `json:"change_pct"`
}

// UsageComparison compares per-application hours between two
// ranges, ranked by second-period hours.
func UsageComparison(
	ctx context.Context, st Store, p ComparisonParams,
) ([]ComparisonRow, map[string]any, error) {
	fetch := func(r dateutil.Range) (map[string]float64, error) {
		events, err := fetchEvents(ctx, st, store.EventFilter{
			From: r.From, To: r.To, App: p.App,
		})
		if err != nil {
			return nil, err
		}
		return GroupSum(events,
			func(e store.UsageEvent) string { return e.ApplicationName },
			func(e store.UsageEvent) float64 { return float64(e.DurationSeconds) },
		), nil
	}

	secondsA, err := fetch(p.RangeA)
	if err != nil {
		return nil, nil, err
	}
	secondsB, err := fetch(p.RangeB)
	if err != nil {
		return nil, nil, err
	}

	apps := make(map[string]float64)
	for app, v := range secondsB {
		apps[app] = v
	}
	for app := range secondsA {
		if _, ok := apps[app]; !ok {
			apps[app] = 0
		}
	}

	rows := make([]ComparisonRow, 0, len(apps))
	for _, kv := range Rank(apps) {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		app := kv.Key
		hA := round2(secondsA[app] / 3600)
		hB := round2(secondsB[app] / 3600)
		row := ComparisonRow{
			ApplicationName: app,
			HoursA:          hA,
			HoursB:          hB,
		}
		if hA > 0 {
			row.ChangePct = round2(100 * (hB - hA) / hA)
		}
		rows = append(rows, row)
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"first_period":  p.RangeA,
		"second_period": p.RangeB,
	}
	return rows, summary, nil
}

// UserCountRow is a distinct-user count for one bucket.
type UserCountRow struct {
	Bucket string `json:"bucket"`
	Users  int    `json:"users"`
}

// ActiveUsersCount counts distinct active users per bucket.
func ActiveUsersCount(
	ctx context.Context, st Store, p TrendParams,
) ([]UserCountRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	perBucket := make(map[string]map[string]bool)
	total := make(map[string]bool)
	for _, e := range events {
		b := dateutil.Bucket(e.LogDate, p.Period)
		if perBucket[b] == nil {
			perBucket[b] = make(map[string]bool)
		}
		perBucket[b][e.User] = true
		total[e.User] = true
	}

	rows := make([]UserCountRow, 0, len(perBucket))
	for _, b := range sortedBuckets(perBucket) {
		rows = append(rows, UserCountRow{
			Bucket: b, Users: len(perBucket[b]),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"period":               p.Period,
		"distinct_users_total": len(total),
	}
	return rows, summary, nil
}

// firstSeenDates returns each user's earliest-ever session date,
// scanning the full log so "new" means new to the system, not new
// to the queried window.
func firstSeenDates(
	ctx context.Context, st Store, app string,
) (map[string]string, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{App: app})
	if err != nil {
		return nil, err
	}
	first := make(map[string]string)
	for _, e := range events {
		if d, ok := first[e.User]; !ok || e.LogDate < d {
			first[e.User] = e.LogDate
		}
	}
	return first, nil
}

// NewUsersCount counts users whose first-ever activity falls in
// each bucket of the range.
func NewUsersCount(
	ctx context.Context, st Store, p TrendParams,
) ([]UserCountRow, map[string]any, error) {
	first, err := firstSeenDates(ctx, st, p.App)
	if err != nil {
		return nil, nil, err
	}

	perBucket := make(map[string]int)
	totalNew := 0
	for _, d := range first {
		if !p.Range.Contains(d) {
			continue
		}
		perBucket[dateutil.Bucket(d, p.Period)]++
		totalNew++
	}

	rows := make([]UserCountRow, 0, len(perBucket))
	for _, b := range sortedBuckets(perBucket) {
		rows = append(rows, UserCountRow{
			Bucket: b, Users: perBucket[b],
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"period":          p.Period,
		"total_new_users": totalNew,
	}
	return rows, summary, nil
}

// OnboardingRow is new-user intake for one bucket with growth
// relative to the previous bucket.
type OnboardingRow struct {
	Bucket    string  `json:"bucket"`
	NewUsers  int     `json:"new_users"`
	GrowthPct float64 `json:"growth_pct"`
}

// OnboardingTrend tracks new-user intake per bucket.
func OnboardingTrend(
	ctx context.Context, st Store, p TrendParams,
) ([]OnboardingRow, map[string]any, error) {
	counts, summary, err := NewUsersCount(ctx, st, p)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]OnboardingRow, 0, len(counts))
	prev := 0
	for i, c := range counts {
		row := OnboardingRow{Bucket: c.Bucket, NewUsers: c.Users}
		if i > 0 && prev > 0 {
			row.GrowthPct = round2(
				100 * float64(c.Users-prev) / float64(prev),
			)
		}
		prev = c.Users
		rows = append(rows, row)
	}
	return rows, summary, nil
}
