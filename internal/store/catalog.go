package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CatalogEntry is one tracked application in the app catalog.
// app_name is the lookup key joining usage events to the catalog.
type CatalogEntry struct {
	AppID          int64  `json:"app_id,omitempty"`
	AppName        string `json:"app_name"`
	AppType        string `json:"app_type"`
	CurrentVersion string `json:"current_version"`
	ReleasedDate   string `json:"released_date"`
	Publisher      string `json:"publisher"`
	Description    string `json:"description"`
	DownloadLink   string `json:"download_link"`
	EnableTracking bool   `json:"enable_tracking"`
	TrackUsage     bool   `json:"track_usage"`
	TrackLocation  bool   `json:"track_location"`
	TrackCM        bool   `json:"track_cm"`
	TrackIntr      int64  `json:"track_intr"`
	RegisteredDate string `json:"registered_date"`
}

// CatalogFilter is the structured predicate set for catalog queries.
type CatalogFilter struct {
	App          string // exact match on app_name
	AppType      string
	Publisher    string
	TrackingOnly bool // only rows with enable_tracking set
}

func (f CatalogFilter) buildWhere() (string, []any) {
	preds := []string{"1=1"}
	var args []any

	if f.App != "" {
		preds = append(preds, "app_name = ?")
		args = append(args, f.App)
	}
	if f.AppType != "" {
		preds = append(preds, "app_type = ?")
		args = append(args, f.AppType)
	}
	if f.Publisher != "" {
		preds = append(preds, "publisher = ?")
		args = append(args, f.Publisher)
	}
	if f.TrackingOnly {
		preds = append(preds, "enable_tracking = 1")
	}
	return strings.Join(preds, " AND "), args
}

// QueryCatalog returns catalog entries matching the filter, ordered
// by app_name.
func (db *DB) QueryCatalog(
	ctx context.Context, f CatalogFilter,
) ([]CatalogEntry, error) {
	where, args := f.buildWhere()
	query := `SELECT app_id, app_name, app_type, current_version,
		released_date, publisher, description, download_link,
		enable_tracking, track_usage, track_location, track_cm,
		track_intr, registered_date
		FROM app_list WHERE ` + where + ` ORDER BY app_name`

	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var c CatalogEntry
		var enable, usage, loc, cm int
		if err := rows.Scan(
			&c.AppID, &c.AppName, &c.AppType, &c.CurrentVersion,
			&c.ReleasedDate, &c.Publisher, &c.Description,
			&c.DownloadLink, &enable, &usage, &loc, &cm,
			&c.TrackIntr, &c.RegisteredDate,
		); err != nil {
			return nil, fmt.Errorf("scanning catalog entry: %w", err)
		}
		c.EnableTracking = enable != 0
		c.TrackUsage = usage != 0
		c.TrackLocation = loc != 0
		c.TrackCM = cm != 0
		entries = append(entries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog: %w", err)
	}
	return entries, nil
}

// UpsertCatalog inserts or updates catalog entries keyed by
// app_name and returns the number of rows written.
func (db *DB) UpsertCatalog(entries []CatalogEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	n := 0
	err := db.Update(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO app_list
			(app_name, app_type, current_version, released_date,
			 publisher, description, download_link,
			 enable_tracking, track_usage, track_location,
			 track_cm, track_intr, registered_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(app_name) DO UPDATE SET
			 app_type = excluded.app_type,
			 current_version = excluded.current_version,
			 released_date = excluded.released_date,
			 publisher = excluded.publisher,
			 description = excluded.description,
			 download_link = excluded.download_link,
			 enable_tracking = excluded.enable_tracking,
			 track_usage = excluded.track_usage,
			 track_location = excluded.track_location,
			 track_cm = excluded.track_cm,
			 track_intr = excluded.track_intr,
			 registered_date = excluded.registered_date`)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()

		for _, c := range entries {
			if _, err := stmt.Exec(
				c.AppName, c.AppType, c.CurrentVersion,
				c.ReleasedDate, c.Publisher, c.Description,
				c.DownloadLink, boolInt(c.EnableTracking),
				boolInt(c.TrackUsage), boolInt(c.TrackLocation),
				boolInt(c.TrackCM), c.TrackIntr, c.RegisteredDate,
			); err != nil {
				return fmt.Errorf(
					"upserting %s: %w", c.AppName, err,
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CountCatalog returns the total number of catalog entries.
func (db *DB) CountCatalog(ctx context.Context) (int64, error) {
	var n int64
	err := db.reader.QueryRowContext(
		ctx, "SELECT count(*) FROM app_list",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting catalog: %w", err)
	}
	return n, nil
}
