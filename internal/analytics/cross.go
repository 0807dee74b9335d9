package analytics

import (
	"context"
	"sort"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// CrossParams filters cross-application analysis tools.
type CrossParams struct {
	Range    dateutil.Range
	User     string
	MinApps  int
	MinUsers int
	Limit    int
}

// MultiAppUserRow is one user active in at least MinApps
// applications.
type MultiAppUserRow struct {
	User         string   `json:"user"`
	AppCount     int      `json:"app_count"`
	Applications []string `json:"applications"`
	TotalHours   float64  `json:"total_hours"`
}

// MultiAppUsers lists users active in MinApps or more distinct
// applications within the range.
func MultiAppUsers(
	ctx context.Context, st Store, p CrossParams,
) ([]MultiAppUserRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, User: p.User,
	})
	if err != nil {
		return nil, nil, err
	}

	apps := make(map[string]map[string]bool)
	seconds := make(map[string]int64)
	for _, e := range events {
		if apps[e.User] == nil {
			apps[e.User] = make(map[string]bool)
		}
		apps[e.User][e.ApplicationName] = true
		seconds[e.User] += e.DurationSeconds
	}

	counts := make(map[string]float64)
	for user, set := range apps {
		if len(set) >= p.MinApps {
			counts[user] = float64(len(set))
		}
	}

	rows := make([]MultiAppUserRow, 0, len(counts))
	for _, kv := range Rank(counts) {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		user := kv.Key
		names := sortedBuckets(apps[user])
		rows = append(rows, MultiAppUserRow{
			User:         user,
			AppCount:     len(names),
			Applications: names,
			TotalHours:   hours(seconds[user]),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"min_apps":        p.MinApps,
		"total_users":     len(apps),
		"multi_app_users": len(counts),
	}
	return rows, summary, nil
}

// AppPairRow is one unordered application pair and its shared-user
// count.
type AppPairRow struct {
	AppA        string `json:"app_a"`
	AppB        string `json:"app_b"`
	SharedUsers int    `json:"shared_users"`
}

// CommonAppCombinations counts, for each unordered application
// pair, the distinct users active in both within the range, keeping
// pairs with at least MinUsers shared users. The pair scan is
// O(apps² · users); the deadline is checked between pairs so an
// oversized catalog aborts with Timeout instead of finishing late.
func CommonAppCombinations(
	ctx context.Context, st Store, p CrossParams,
) ([]AppPairRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To,
	})
	if err != nil {
		return nil, nil, err
	}

	usersByApp := make(map[string]map[string]bool)
	for _, e := range events {
		if usersByApp[e.ApplicationName] == nil {
			usersByApp[e.ApplicationName] = make(map[string]bool)
		}
		usersByApp[e.ApplicationName][e.User] = true
	}
	apps := sortedBuckets(usersByApp)

	var rows []AppPairRow
	for i := 0; i < len(apps); i++ {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		for j := i + 1; j < len(apps); j++ {
			a, b := apps[i], apps[j]
			setA, setB := usersByApp[a], usersByApp[b]
			if len(setB) < len(setA) {
				setA, setB = setB, setA
			}
			shared := 0
			for user := range setA {
				if setB[user] {
					shared++
				}
			}
			if shared >= p.MinUsers {
				rows = append(rows, AppPairRow{
					AppA: a, AppB: b, SharedUsers: shared,
				})
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SharedUsers != rows[j].SharedUsers {
			return rows[i].SharedUsers > rows[j].SharedUsers
		}
		if rows[i].AppA != rows[j].AppA {
			return rows[i].AppA < rows[j].AppA
		}
		return rows[i].AppB < rows[j].AppB
	})
	if rows == nil {
		rows = []AppPairRow{}
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"min_users":    p.MinUsers,
		"applications": len(apps),
		"pairs":        len(rows),
	}
	return rows, summary, nil
}

// PctBreakdownRow is one application's share of total usage.
type PctBreakdownRow struct {
	ApplicationName string  `json:"application_name"`
	TotalHours      float64 `json:"total_hours"`
	PctOfTotal      float64 `json:"percentage_of_total"`
}

// UsagePercentageBreakdown reports each application's share of
// total usage hours. Shares sum to 100 for non-empty data; an
// all-zero log yields all-zero shares.
func UsagePercentageBreakdown(
	ctx context.Context, st Store, p CrossParams,
) ([]PctBreakdownRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, User: p.User,
	})
	if err != nil {
		return nil, nil, err
	}

	seconds := GroupSum(events,
		func(e store.UsageEvent) string { return e.ApplicationName },
		func(e store.UsageEvent) float64 { return float64(e.DurationSeconds) },
	)
	pcts := PercentageBreakdown(seconds)

	rows := make([]PctBreakdownRow, 0, len(seconds))
	for _, kv := range Rank(seconds) {
		rows = append(rows, PctBreakdownRow{
			ApplicationName: kv.Key,
			TotalHours:      round2(kv.Value / 3600),
			PctOfTotal:      round2(pcts[kv.Key]),
		})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"applications": len(seconds),
	}
	return rows, summary, nil
}

// MatrixRow is one user's per-application hour breakdown.
type MatrixRow struct {
	User     string             `json:"user"`
	AppHours map[string]float64 `json:"app_hours"`
}

// UserAppMatrix builds the user × application hours matrix for the
// range. Rows are ordered by user for reproducibility.
func UserAppMatrix(
	ctx context.Context, st Store, p CrossParams,
) ([]MatrixRow, map[string]any, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: p.Range.From, To: p.Range.To, User: p.User,
	})
	if err != nil {
		return nil, nil, err
	}

	matrix := make(map[string]map[string]int64)
	apps := make(map[string]bool)
	for _, e := range events {
		if matrix[e.User] == nil {
			matrix[e.User] = make(map[string]int64)
		}
		matrix[e.User][e.ApplicationName] += e.DurationSeconds
		apps[e.ApplicationName] = true
	}

	rows := make([]MatrixRow, 0, len(matrix))
	for _, user := range sortedBuckets(matrix) {
		if err := timeoutErr(ctx); err != nil {
			return nil, nil, err
		}
		cells := make(map[string]float64, len(matrix[user]))
		for app, secs := range matrix[user] {
			cells[app] = hours(secs)
		}
		rows = append(rows, MatrixRow{User: user, AppHours: cells})
	}
	rows = limitRows(rows, p.Limit)

	summary := map[string]any{
		"users":        len(matrix),
		"applications": len(apps),
	}
	return rows, summary, nil
}
