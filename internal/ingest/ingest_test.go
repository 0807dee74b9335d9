package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usagelens/usagelens/internal/store"
)

func testImporter(t *testing.T) (*Importer, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewImporter(db), db
}

func TestImportEvents(t *testing.T) {
	im, db := testImporter(t)

	input := strings.Join([]string{
		`{"user":"alice","application_name":"editor","log_date":"2025-08-01","duration_seconds":3600,"platform":"windows","application_version":"1.0.0"}`,
		``, // blank lines are skipped silently
		`{"user":"bob","application_name":"chat","log_date":"2025-08-02","duration_seconds":900,"legacy_app":true}`,
		`not json at all`,
		`{"user":"","application_name":"editor","log_date":"2025-08-01","duration_seconds":10}`,
		`{"user":"carol","application_name":"editor","log_date":"08/01/2025","duration_seconds":10}`,
		`{"user":"carol","application_name":"editor","log_date":"2025-08-01","duration_seconds":-5}`,
	}, "\n")

	res, err := im.ImportEvents(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 4, res.Skipped)

	events, err := db.QueryEvents(context.Background(), store.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "alice", events[0].User)
	assert.True(t, events[1].LegacyApp)
}

func TestImportCatalog(t *testing.T) {
	im, db := testImporter(t)

	input := `[
		{"app_name":"editor","app_type":"developer","publisher":"Acme",
		 "current_version":"1.2.0","enable_tracking":true,"track_usage":true},
		{"app_name":"","publisher":"ignored"},
		{"app_name":"chat","app_type":"communication"}
	]`

	res, err := im.ImportCatalog(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	entries, err := db.QueryCatalog(
		context.Background(), store.CatalogFilter{},
	)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "chat", entries[0].AppName)
	assert.Equal(t, "1.2.0", entries[1].CurrentVersion)
	assert.True(t, entries[1].EnableTracking)
}

func TestImportCatalogInvalidJSON(t *testing.T) {
	im, _ := testImporter(t)
	_, err := im.ImportCatalog(strings.NewReader("{broken"))
	assert.Error(t, err)
}

func TestImportFileDispatch(t *testing.T) {
	im, db := testImporter(t)
	dir := t.TempDir()

	eventsPath := filepath.Join(dir, "drop.jsonl")
	require.NoError(t, os.WriteFile(eventsPath, []byte(
		`{"user":"alice","application_name":"editor","log_date":"2025-08-01","duration_seconds":60}`+"\n",
	), 0o644))

	catalogPath := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(
		`[{"app_name":"editor"}]`,
	), 0o644))

	// Unrelated files are ignored without error.
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644,
	))

	res, err := im.ImportDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Skipped)

	n, err := db.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestParseEventDefaults(t *testing.T) {
	e, ok := parseEvent(
		`{"user":"u","application_name":"a","log_date":"2025-01-01"}`,
	)
	require.True(t, ok)
	// Absent duration parses as zero, a valid no-usage ping.
	assert.Equal(t, int64(0), e.DurationSeconds)
	assert.Equal(t, "", e.Platform)
}

func TestRecordScannerSkipsOversized(t *testing.T) {
	long := strings.Repeat("x", maxRecordLen+10)
	input := "short1\n" + long + "\nshort2\n"

	sc := newRecordScanner(strings.NewReader(input), maxRecordLen)
	var got []string
	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		got = append(got, line)
	}
	assert.Equal(t, []string{"short1", "short2"}, got)
}
