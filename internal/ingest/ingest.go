// Package ingest loads usage-log drops into the store: JSONL files
// of usage events and JSON arrays of catalog entries. Malformed
// lines are counted and skipped, never fatal; a drop file with one
// bad record still imports the rest.
package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
)

// insertBatchSize bounds the events held in memory per transaction.
const insertBatchSize = 500

// Result reports one import's outcome.
type Result struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

func (r Result) add(o Result) Result {
	return Result{
		Inserted: r.Inserted + o.Inserted,
		Skipped:  r.Skipped + o.Skipped,
	}
}

// Importer writes parsed drops into the store.
type Importer struct {
	db *store.DB
}

// NewImporter creates an Importer over db.
func NewImporter(db *store.DB) *Importer {
	return &Importer{db: db}
}

// ImportFile dispatches on the file name: .jsonl files are usage
// events, .json files are catalog arrays. Anything else is skipped
// without error so unrelated files in the drop directory are
// harmless.
func (im *Importer) ImportFile(path string) (Result, error) {
	var kind string
	switch {
	case strings.HasSuffix(path, ".jsonl"):
		kind = "events"
	case strings.HasSuffix(path, ".json"):
		kind = "catalog"
	default:
		return Result{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if kind == "events" {
		return im.ImportEvents(f)
	}
	return im.ImportCatalog(f)
}

// ImportDir imports every recognized file directly under dir.
func (im *Importer) ImportDir(dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("reading drop dir: %w", err)
	}

	var total Result
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		res, err := im.ImportFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return total, err
		}
		total = total.add(res)
	}
	return total, nil
}

// ImportEvents reads JSONL usage events from r. Lines that fail to
// parse or fail validation are counted as skipped.
func (im *Importer) ImportEvents(r io.Reader) (Result, error) {
	sc := newRecordScanner(r, maxRecordLen)

	var res Result
	batch := make([]store.UsageEvent, 0, insertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := im.db.InsertEvents(batch)
		if err != nil {
			return err
		}
		res.Inserted += n
		batch = batch[:0]
		return nil
	}

	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		e, ok := parseEvent(line)
		if !ok {
			res.Skipped++
			continue
		}
		batch = append(batch, e)
		if len(batch) >= insertBatchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	return res, nil
}

// parseEvent validates one JSONL line into a UsageEvent. user,
// application_name, a well-formed log_date, and a non-negative
// duration are required.
func parseEvent(line string) (store.UsageEvent, bool) {
	if !gjson.Valid(line) {
		return store.UsageEvent{}, false
	}
	v := gjson.Parse(line)

	e := store.UsageEvent{
		MonitorAppVersion: v.Get("monitor_app_version").Str,
		Platform:          v.Get("platform").Str,
		User:              v.Get("user").Str,
		ApplicationName:   v.Get("application_name").Str,
		AppVersion:        v.Get("application_version").Str,
		LogDate:           v.Get("log_date").Str,
		LegacyApp:         v.Get("legacy_app").Bool(),
		DurationSeconds:   v.Get("duration_seconds").Int(),
	}
	if e.User == "" || e.ApplicationName == "" {
		return store.UsageEvent{}, false
	}
	if !dateutil.Valid(e.LogDate) {
		return store.UsageEvent{}, false
	}
	if e.DurationSeconds < 0 {
		return store.UsageEvent{}, false
	}
	return e, true
}

// ImportCatalog reads a JSON array of catalog entries from r and
// upserts them keyed by app_name. Entries without an app_name are
// skipped.
func (im *Importer) ImportCatalog(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("reading catalog: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return Result{}, fmt.Errorf("catalog is not valid JSON")
	}

	var res Result
	var entries []store.CatalogEntry
	for _, v := range gjson.ParseBytes(data).Array() {
		c, ok := parseCatalogEntry(v)
		if !ok {
			res.Skipped++
			continue
		}
		entries = append(entries, c)
	}

	n, err := im.db.UpsertCatalog(entries)
	if err != nil {
		return res, err
	}
	res.Inserted = n
	return res, nil
}

func parseCatalogEntry(v gjson.Result) (store.CatalogEntry, bool) {
	c := store.CatalogEntry{
		AppName:        v.Get("app_name").Str,
		AppType:        v.Get("app_type").Str,
		CurrentVersion: v.Get("current_version").Str,
		ReleasedDate:   v.Get("released_date").Str,
		Publisher:      v.Get("publisher").Str,
		Description:    v.Get("description").Str,
		DownloadLink:   v.Get("download_link").Str,
		EnableTracking: v.Get("enable_tracking").Bool(),
		TrackUsage:     v.Get("track_usage").Bool(),
		TrackLocation:  v.Get("track_location").Bool(),
		TrackCM:        v.Get("track_cm").Bool(),
		TrackIntr:      v.Get("track_intr").Int(),
		RegisteredDate: v.Get("registered_date").Str,
	}
	if c.AppName == "" {
		return store.CatalogEntry{}, false
	}
	return c, true
}
