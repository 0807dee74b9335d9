package analytics

import (
	"context"
	"sort"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// Session is a contiguous block of usage for one (user, application)
// pair on one day, reconstructed from raw events. Events carry only
// a calendar date, so same-day events for a pair collapse into a
// single session whose length is their summed duration. All
// session-based tools consume Sessions, never raw events, so session
// semantics stay consistent across the tool set.
type Session struct {
	User            string `json:"user"`
	ApplicationName string `json:"application_name"`
	Date            string `json:"date"`
	TotalSeconds    int64  `json:"total_seconds"`
}

// SessionFilter narrows session reconstruction.
type SessionFilter struct {
	Range dateutil.Range
	User  string
	App   string
}

// Sessions groups events by (user, application, date) and sums
// durations within each group. Output order is (user, application,
// date) ascending for reproducibility.
func Sessions(events []store.UsageEvent) []Session {
	type key struct{ user, app, date string }
	totals := make(map[key]int64)
	for _, e := range events {
		k := key{e.User, e.ApplicationName, e.LogDate}
		totals[k] += e.DurationSeconds
	}

	sessions := make([]Session, 0, len(totals))
	for k, secs := range totals {
		sessions = append(sessions, Session{
			User:            k.user,
			ApplicationName: k.app,
			Date:            k.date,
			TotalSeconds:    secs,
		})
	}
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.User != b.User {
			return a.User < b.User
		}
		if a.ApplicationName != b.ApplicationName {
			return a.ApplicationName < b.ApplicationName
		}
		return a.Date < b.Date
	})
	return sessions
}

// SessionsFor fetches matching events and reconstructs sessions.
func SessionsFor(
	ctx context.Context, st Store, f SessionFilter,
) ([]Session, error) {
	events, err := fetchEvents(ctx, st, store.EventFilter{
		From: f.Range.From,
		To:   f.Range.To,
		User: f.User,
		App:  f.App,
	})
	if err != nil {
		return nil, err
	}
	return Sessions(events), nil
}
