package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// UsageEvent is one logged usage interval for a user/application/day.
// Multiple events may share the same (user, application, log_date);
// they are separate intervals and must be summed, never overwritten.
type UsageEvent struct {
	ID                int64  `json:"id,omitempty"`
	MonitorAppVersion string `json:"monitor_app_version"`
	Platform          string `json:"platform"`
	User              string `json:"user"`
	ApplicationName   string `json:"application_name"`
	AppVersion        string `json:"application_version"`
	LogDate           string `json:"log_date"` // YYYY-MM-DD
	LegacyApp         bool   `json:"legacy_app"`
	DurationSeconds   int64  `json:"duration_seconds"`
}

// EventFilter is the structured predicate set for event queries.
// Zero-valued fields are not applied. Dates are inclusive bounds.
type EventFilter struct {
	From     string // YYYY-MM-DD
	To       string // YYYY-MM-DD
	User     string // exact match
	App      string // exact match on application_name
	Platform string // exact match
}

// buildWhere returns a WHERE clause and args for the filter.
func (f EventFilter) buildWhere() (string, []any) {
	preds := []string{"duration_seconds >= 0"}
	var args []any

	if f.From != "" {
		preds = append(preds, "log_date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		preds = append(preds, "log_date <= ?")
		args = append(args, f.To)
	}
	if f.User != "" {
		preds = append(preds, "user = ?")
		args = append(args, f.User)
	}
	if f.App != "" {
		preds = append(preds, "application_name = ?")
		args = append(args, f.App)
	}
	if f.Platform != "" {
		preds = append(preds, "platform = ?")
		args = append(args, f.Platform)
	}
	return strings.Join(preds, " AND "), args
}

// QueryEvents returns all events matching the filter, ordered by
// (log_date, user, application_name, id) for reproducible scans.
func (db *DB) QueryEvents(
	ctx context.Context, f EventFilter,
) ([]UsageEvent, error) {
	where, args := f.buildWhere()
	query := `SELECT id, monitor_app_version, platform, user,
		application_name, application_version, log_date,
		legacy_app, duration_seconds
		FROM app_usage WHERE ` + where + `
		ORDER BY log_date, user, application_name, id`

	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []UsageEvent
	for rows.Next() {
		var e UsageEvent
		var legacy int
		if err := rows.Scan(
			&e.ID, &e.MonitorAppVersion, &e.Platform, &e.User,
			&e.ApplicationName, &e.AppVersion, &e.LogDate,
			&legacy, &e.DurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.LegacyApp = legacy != 0
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// InsertEvents appends events in a single transaction and returns
// the number inserted. Events with negative durations are rejected
// by the schema check constraint.
func (db *DB) InsertEvents(events []UsageEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	n := 0
	err := db.Update(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO app_usage
			(monitor_app_version, platform, user,
			 application_name, application_version, log_date,
			 legacy_app, duration_seconds)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			legacy := 0
			if e.LegacyApp {
				legacy = 1
			}
			if _, err := stmt.Exec(
				e.MonitorAppVersion, e.Platform, e.User,
				e.ApplicationName, e.AppVersion, e.LogDate,
				legacy, e.DurationSeconds,
			); err != nil {
				return fmt.Errorf(
					"inserting event for %s/%s: %w",
					e.User, e.ApplicationName, err,
				)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CountEvents returns the total number of usage events.
func (db *DB) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := db.reader.QueryRowContext(
		ctx, "SELECT count(*) FROM app_usage",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}
