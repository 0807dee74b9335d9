package analytics

import (
	"context"
	"sort"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// SessionLengthRow summarizes session-length statistics for one
// application.
type SessionLengthRow struct {
	ApplicationName string  `json:"application_name"`
	Sessions        int     `json:"sessions"`
	TotalHours      float64 `json:"total_hours"`
	AvgHours        float64 `json:"avg_session_hours"`
	MedianHours     float64 `json:"median_session_hours"`
	P90Hours        float64 `json:"p90_session_hours"`
	MinHours        float64 `json:"min_session_hours"`
	MaxHours        float64 `json:"max_session_hours"`
}

// SessionParams filters session-statistics tools.
type SessionParams struct {
	Range dateutil.Range
	User  string
	App   string
	Limit int
}

// SessionLengthAnalysis reports per-application session-length
// statistics over reconstructed sessions.
func SessionLengthAnalysis(
	ctx context.Context, st Store, p SessionParams,
) ([]SessionLengthRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, User: p.User, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	lengths := make(map[string][]float64)
	for _, s := range sessions {
		lengths[s.ApplicationName] = append(
			lengths[s.ApplicationName], float64(s.TotalSeconds),
		)
	}

	apps := sortedBuckets(lengths)
	rows := make([]SessionLengthRow, 0, len(apps))
	for _, app := range apps {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		vals := lengths[app]
		sort.Float64s(vals)

		var total float64
		for _, v := range vals {
			total += v
		}
		med, err := Median(vals)
		if err != nil {
			return nil, nil, err // unreachable: vals is non-empty
		}
		rows = append(rows, SessionLengthRow{
			ApplicationName: app,
			Sessions:        len(vals),
			TotalHours:      round2(total / 3600),
			AvgHours:        round2(total / float64(len(vals)) / 3600),
			MedianHours:     round2(med / 3600),
			P90Hours:        round2(Percentile(vals, 90) / 3600),
			MinHours:        round2(vals[0] / 3600),
			MaxHours:        round2(vals[len(vals)-1] / 3600),
		})
	}

	// Rank by total hours, ties by name.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalHours != rows[j].TotalHours {
			return rows[i].TotalHours > rows[j].TotalHours
		}
		return rows[i].ApplicationName < rows[j].ApplicationName
	})
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"total_sessions": len(sessions),
	}
	return rows, summary, nil
}

// MedianSessionRow is the median session length over the filtered
// session set.
type MedianSessionRow struct {
	Sessions      int     `json:"sessions"`
	MedianSeconds float64 `json:"median_seconds"`
	MedianHours   float64 `json:"median_hours"`
}

// MedianSessionLength computes the median session length. An empty
// session set is an EmptyDataset error, not a zero.
func MedianSessionLength(
	ctx context.Context, st Store, p SessionParams,
) ([]MedianSessionRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, User: p.User, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	lengths := make([]float64, len(sessions))
	for i, s := range sessions {
		lengths[i] = float64(s.TotalSeconds)
	}
	med, err := Median(lengths)
	if err != nil {
		return nil, nil, err
	}

	row := MedianSessionRow{
		Sessions:      len(sessions),
		MedianSeconds: round2(med),
		MedianHours:   round2(med / 3600),
	}
	return []MedianSessionRow{row}, nil, nil
}

// HeavyUserRow is one user exceeding the heavy-usage threshold.
type HeavyUserRow struct {
	User       string  `json:"user"`
	TotalHours float64 `json:"total_hours"`
	Sessions   int     `json:"sessions"`
	AppsUsed   int     `json:"apps_used"`
}

// HeavyUsersParams configures the heavy-users threshold scan.
type HeavyUsersParams struct {
	Range    dateutil.Range
	App      string
	MinHours float64 // inclusive threshold: total_hours >= MinHours
	Limit    int
}

// HeavyUsers lists users whose summed session hours reach at least
// MinHours, sorted descending by hours. The boundary is inclusive:
// a user at exactly MinHours counts as heavy.
func HeavyUsers(
	ctx context.Context, st Store, p HeavyUsersParams,
) ([]HeavyUserRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	seconds := make(map[string]int64)
	count := make(map[string]int)
	apps := make(map[string]map[string]bool)
	for _, s := range sessions {
		seconds[s.User] += s.TotalSeconds
		count[s.User]++
		if apps[s.User] == nil {
			apps[s.User] = make(map[string]bool)
		}
		apps[s.User][s.ApplicationName] = true
	}

	totals := make(map[string]float64)
	for user, secs := range seconds {
		h := float64(secs) / 3600
		if h >= p.MinHours {
			totals[user] = h
		}
	}

	rows := make([]HeavyUserRow, 0, len(totals))
	for _, kv := range Rank(totals) {
		rows = append(rows, HeavyUserRow{
			User:       kv.Key,
			TotalHours: round2(kv.Value),
			Sessions:   count[kv.Key],
			AppsUsed:   len(apps[kv.Key]),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"min_hours":   p.MinHours,
		"total_users": len(seconds),
		"heavy_users": len(totals),
	}
	return rows, summary, nil
}

// InactiveUserRow is one user past the inactivity threshold.
type InactiveUserRow struct {
	User         string `json:"user"`
	LastActive   string `json:"last_active"`
	DaysInactive int    `json:"days_inactive"`
}

// InactiveUsersParams configures the inactivity scan. The user
// universe is all distinct users ever appearing in the event log;
// users with no events at all are by definition not in the
// universe and are never reported.
type InactiveUsersParams struct {
	MinInactiveDays int
	Today           string // YYYY-MM-DD reference date
	Limit           int
}

// InactiveUsers lists users whose most recent session date is more
// than MinInactiveDays before Today, sorted by days inactive
// descending.
func InactiveUsers(
	ctx context.Context, st Store, p InactiveUsersParams,
) ([]InactiveUserRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{})
	if err != nil {
		return nil, nil, err
	}

	last := make(map[string]string)
	for _, e := range events {
		if d, ok := last[e.User]; !ok || e.LogDate > d {
			last[e.User] = e.LogDate
		}
	}

	inactive := make(map[string]float64)
	for user, d := range last {
		// DaysBetween is inclusive; days since excludes the day
		// itself.
		gone := dateutil.DaysBetween(d, p.Today) - 1
		if gone > p.MinInactiveDays {
			inactive[user] = float64(gone)
		}
	}

	rows := make([]InactiveUserRow, 0, len(inactive))
	for _, kv := range Rank(inactive) {
		rows = append(rows, InactiveUserRow{
			User:         kv.Key,
			LastActive:   last[kv.Key],
			DaysInactive: int(kv.Value),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"min_inactive_days": p.MinInactiveDays,
		"total_users":       len(last),
		"inactive_users":    len(inactive),
	}
	return rows, summary, nil
}

// ChurnResult is the outcome of a churn-rate partition.
type ChurnResult struct {
	ChurnDate     string  `json:"churn_date"`
	UsersBefore   int     `json:"users_before"`
	UsersAfter    int     `json:"users_after"`
	RetainedUsers int     `json:"retained_users"`
	ChurnedUsers  int     `json:"churned_users"`
	ChurnRatePct  float64 `json:"churn_rate_pct"`
}

// ChurnRateAnalysis partitions users into active-before and
// active-after sets around ChurnDate (sessions strictly before vs
// on-or-after) and reports the fraction of before-users absent
// after. An empty before-set makes the rate undefined and is an
// InvalidParameter error.
func ChurnRateAnalysis(
	ctx context.Context, st Store, churnDate string, app string,
) (*ChurnResult, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{App: app})
	if err != nil {
		return nil, nil, err
	}

	before := make(map[string]bool)
	after := make(map[string]bool)
	for _, e := range events {
		if e.LogDate < churnDate {
			before[e.User] = true
		} else {
			after[e.User] = true
		}
	}
	if len(before) == 0 {
		return nil, nil, InvalidParam(
			"churn_date", "no users active before churn date",
		)
	}

	churned := 0
	for user := range before {
		if !after[user] {
			churned++
		}
	}

	res := &ChurnResult{
		ChurnDate:     churnDate,
		UsersBefore:   len(before),
		UsersAfter:    len(after),
		RetainedUsers: len(before) - churned,
		ChurnedUsers:  churned,
		ChurnRatePct: round2(
			100 * float64(churned) / float64(len(before)),
		),
	}
	return res, nil, nil
}

// NewReturningRow splits one bucket's active users into new and
// returning.
type NewReturningRow struct {
	Bucket    string `json:"bucket"`
	New       int    `json:"new_users"`
	Returning int    `json:"returning_users"`
}

// NewVsReturningUsers classifies each bucket's active users: new
// if their earliest-ever session date falls in the bucket,
// returning otherwise.
func NewVsReturningUsers(
	ctx context.Context, st Store, p TrendParams,
) ([]NewReturningRow, map[string]any, error) {
	first, err := firstSeenDates(ctx, st, p.App)
	if err != nil {
		return nil, nil, err
	}
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	type split struct{ newUsers, returning map[string]bool }
	buckets := make(map[string]*split)
	for _, e := range events {
		b := dateutil.Bucket(e.LogDate, p.Period)
		s := buckets[b]
		if s == nil {
			s = &split{
				newUsers:  make(map[string]bool),
				returning: make(map[string]bool),
			}
			buckets[b] = s
		}
		if dateutil.Bucket(first[e.User], p.Period) == b {
			s.newUsers[e.User] = true
		} else {
			s.returning[e.User] = true
		}
	}

	rows := make([]NewReturningRow, 0, len(buckets))
	for _, b := range sortedBuckets(buckets) {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		s := buckets[b]
		rows = append(rows, NewReturningRow{
			Bucket:    b,
			New:       len(s.newUsers),
			Returning: len(s.returning),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"period": p.Period,
	}
	return rows, summary, nil
}

// GrowthRow is one bucket in an application's growth series.
type GrowthRow struct {
	Bucket         string  `json:"bucket"`
	UniqueUsers    int     `json:"unique_users"`
	TotalHours     float64 `json:"total_hours"`
	UserGrowthPct  float64 `json:"user_growth_pct"`
	HoursGrowthPct float64 `json:"hours_growth_pct"`
}

// GrowthTrendAnalysis reports per-bucket distinct users and hours
// for one application with bucket-over-bucket percent change.
func GrowthTrendAnalysis(
	ctx context.Context, st Store, p TrendParams,
) ([]GrowthRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}

	type agg struct {
		seconds int64
		users   map[string]bool
	}
	buckets := make(map[string]*agg)
	for _, e := range events {
		b := dateutil.Bucket(e.LogDate, p.Period)
		a := buckets[b]
		if a == nil {
			a = &agg{users: make(map[string]bool)}
			buckets[b] = a
		}
		a.seconds += e.DurationSeconds
		a.users[e.User] = true
	}

	rows := make([]GrowthRow, 0, len(buckets))
	var prevUsers int
	var prevHours float64
	for i, b := range sortedBuckets(buckets) {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		a := buckets[b]
		h := hours(a.seconds)
		row := GrowthRow{
			Bucket:      b,
			UniqueUsers: len(a.users),
			TotalHours:  h,
		}
		if i > 0 {
			if prevUsers > 0 {
				row.UserGrowthPct = round2(
					100 * float64(len(a.users)-prevUsers) /
						float64(prevUsers),
				)
			}
			if prevHours > 0 {
				row.HoursGrowthPct = round2(
					100 * (h - prevHours) / prevHours,
				)
			}
		}
		prevUsers = len(a.users)
		prevHours = h
		rows = append(rows, row)
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"application_name": p.App,
		"period":           p.Period,
	}
	return rows, summary, nil
}
