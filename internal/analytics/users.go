package analytics

import (
	"context"

	"github.com/usagelens/usagelens/internal/dateutil"
)

// UserParams filters user-centric tools. User is required by every
// tool in this file except AppUsers, which requires App.
type UserParams struct {
	Range dateutil.Range
	User  string
	App   string
	TopN  int
	Limit int
}

// UserHoursRow is one user's usage of one application.
type UserHoursRow struct {
	User            string  `json:"user"`
	ApplicationName string  `json:"application_name"`
	TotalHours      float64 `json:"total_hours"`
	Sessions        int     `json:"sessions"`
	FirstUsed       string  `json:"first_used"`
	LastUsed        string  `json:"last_used"`
}

// userAppRows aggregates sessions into per-(user, app) rows ranked
// by hours.
func userAppRows(sessions []Session) []UserHoursRow {
	type pair struct{ user, app string }
	seconds := make(map[pair]int64)
	count := make(map[pair]int)
	first := make(map[pair]string)
	last := make(map[pair]string)
	for _, s := range sessions {
		k := pair{s.User, s.ApplicationName}
		seconds[k] += s.TotalSeconds
		count[k]++
		if f, ok := first[k]; !ok || s.Date < f {
			first[k] = s.Date
		}
		if l, ok := last[k]; !ok || s.Date > l {
			last[k] = s.Date
		}
	}

	keyed := make(map[string]float64, len(seconds))
	pairs := make(map[string]pair, len(seconds))
	for k, secs := range seconds {
		// user and app joined with a separator that cannot appear
		// in a date, keeping rank keys unique and ordering stable.
		id := k.user + "\x00" + k.app
		keyed[id] = float64(secs)
		pairs[id] = k
	}

	rows := make([]UserHoursRow, 0, len(keyed))
	for _, kv := range Rank(keyed) {
		k := pairs[kv.Key]
		rows = append(rows, UserHoursRow{
			User:            k.user,
			ApplicationName: k.app,
			TotalHours:      round2(kv.Value / 3600),
			Sessions:        count[k],
			FirstUsed:       first[k],
			LastUsed:        last[k],
		})
	}
	return rows
}

// AppUsers lists the users of one application ranked by hours.
func AppUsers(
	ctx context.Context, st Store, p UserParams,
) ([]UserHoursRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}
	rows := limitRows(userAppRows(sessions), p.Limit)
	summary := map[string]any{
		"application_name": p.App,
		"users":            len(rows),
	}
	return rows, summary, nil
}

// UserApplications lists the applications one user has used,
// ranked by hours.
func UserApplications(
	ctx context.Context, st Store, p UserParams,
) ([]UserHoursRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, User: p.User,
	})
	if err != nil {
		return nil, nil, err
	}
	rows := limitRows(userAppRows(sessions), p.Limit)
	summary := map[string]any{
		"user":         p.User,
		"applications": len(rows),
	}
	return rows, summary, nil
}

// UserTopApps is UserApplications truncated to the top N.
func UserTopApps(
	ctx context.Context, st Store, p UserParams,
) ([]UserHoursRow, map[string]any, error) {
	if p.TopN <= 0 {
		return nil, nil, InvalidParam("top_n", "must be positive")
	}
	rows, summary, err := UserApplications(ctx, st, p)
	if err != nil {
		return nil, nil, err
	}
	rows = limitRows(rows, p.TopN)
	return rows, summary, nil
}

// UserTotalsRow is one user's aggregate usage across all apps.
type UserTotalsRow struct {
	User        string  `json:"user"`
	TotalHours  float64 `json:"total_hours"`
	Sessions    int     `json:"sessions"`
	AppsUsed    int     `json:"apps_used"`
	ActiveDays  int     `json:"active_days"`
	FirstActive string  `json:"first_active"`
	LastActive  string  `json:"last_active"`
}

// UserTotalHours reports one user's aggregate usage for the range.
func UserTotalHours(
	ctx context.Context, st Store, p UserParams,
) ([]UserTotalsRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, User: p.User,
	})
	if err != nil {
		return nil, nil, err
	}

	var secs int64
	apps := make(map[string]bool)
	days := make(map[string]bool)
	first, last := "", ""
	for _, s := range sessions {
		secs += s.TotalSeconds
		apps[s.ApplicationName] = true
		days[s.Date] = true
		if first == "" || s.Date < first {
			first = s.Date
		}
		if s.Date > last {
			last = s.Date
		}
	}

	row := UserTotalsRow{
		User:        p.User,
		TotalHours:  hours(secs),
		Sessions:    len(sessions),
		AppsUsed:    len(apps),
		ActiveDays:  len(days),
		FirstActive: first,
		LastActive:  last,
	}
	return []UserTotalsRow{row}, nil, nil
}

// UserAppHours reports one user's usage of one application.
func UserAppHours(
	ctx context.Context, st Store, p UserParams,
) ([]UserHoursRow, map[string]any, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{
		Range: p.Range, User: p.User, App: p.App,
	})
	if err != nil {
		return nil, nil, err
	}
	return userAppRows(sessions), nil, nil
}

// LastActiveRow is a user's most recent activity.
type LastActiveRow struct {
	User            string `json:"user"`
	LastActive      string `json:"last_active"`
	ApplicationName string `json:"application_name,omitempty"`
	DaysSince       int    `json:"days_since"`
}

// lastSession finds the user's most recent session across all
// time. Ties on date break by ascending application name.
func lastSession(
	ctx context.Context, st Store, user string,
) (*Session, error) {
	sessions, err := SessionsFor(ctx, st, SessionFilter{User: user})
	if err != nil {
		return nil, err
	}
	var best *Session
	for i := range sessions {
		s := &sessions[i]
		if best == nil || s.Date > best.Date ||
			(s.Date == best.Date &&
				s.ApplicationName < best.ApplicationName) {
			best = s
		}
	}
	return best, nil
}

// UserLastActive reports when a user was last seen. A user with no
// events is an EmptyDataset error.
func UserLastActive(
	ctx context.Context, st Store, user, today string,
) ([]LastActiveRow, map[string]any, error) {
	s, err := lastSession(ctx, st, user)
	if err != nil {
		return nil, nil, err
	}
	if s == nil {
		return nil, nil, EmptyDataset("no activity for user " + user)
	}
	row := LastActiveRow{
		User:       user,
		LastActive: s.Date,
		DaysSince:  dateutil.DaysBetween(s.Date, today) - 1,
	}
	return []LastActiveRow{row}, nil, nil
}

// UserLastApp reports the application a user most recently used.
func UserLastApp(
	ctx context.Context, st Store, user, today string,
) ([]LastActiveRow, map[string]any, error) {
	s, err := lastSession(ctx, st, user)
	if err != nil {
		return nil, nil, err
	}
	if s == nil {
		return nil, nil, EmptyDataset("no activity for user " + user)
	}
	row := LastActiveRow{
		User:            user,
		LastActive:      s.Date,
		ApplicationName: s.ApplicationName,
		DaysSince:       dateutil.DaysBetween(s.Date, today) - 1,
	}
	return []LastActiveRow{row}, nil, nil
}
