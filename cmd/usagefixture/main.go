// Command usagefixture writes a small deterministic usage database
// for local development and manual testing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/usagelens/usagelens/internal/store"
)

type appSpec struct {
	name      string
	appType   string
	publisher string
	version   string
	released  string
	legacy    bool
	users     []string
	// seconds per user per active day
	dailySeconds int64
	activeDays   int
}

var specs = []appSpec{
	{
		name: "ledgerbook", appType: "productivity",
		publisher: "Acme Software", version: "3.2.1",
		released: "2025-06-10",
		users:    []string{"alice", "bob", "carol"},
		dailySeconds: 5400, activeDays: 20,
	},
	{
		name: "meshchat", appType: "communication",
		publisher: "Acme Software", version: "1.9.0",
		released: "2025-07-01",
		users:    []string{"alice", "bob", "dave", "erin"},
		dailySeconds: 3600, activeDays: 15,
	},
	{
		name: "pixelforge", appType: "design",
		publisher: "Northlight Labs", version: "12.0.4",
		released: "2025-03-22",
		users:    []string{"carol", "erin"},
		dailySeconds: 7200, activeDays: 10,
	},
	{
		name: "greenterm", appType: "developer",
		publisher: "Northlight Labs", version: "0.8.2",
		released: "2024-11-05", legacy: true,
		users:    []string{"dave"},
		dailySeconds: 1800, activeDays: 5,
	},
}

func main() {
	out := flag.String("out", "", "output database path")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: usagefixture -out <path>")
		os.Exit(1)
	}

	if err := os.Remove(*out); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Fatalf("removing existing db: %v", err)
	}

	db, err := store.Open(*out)
	if err != nil {
		log.Fatalf("opening db: %v", err)
	}
	defer db.Close()

	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	catalog := make([]store.CatalogEntry, 0, len(specs))
	for _, spec := range specs {
		catalog = append(catalog, store.CatalogEntry{
			AppName:        spec.name,
			AppType:        spec.appType,
			CurrentVersion: spec.version,
			ReleasedDate:   spec.released,
			Publisher:      spec.publisher,
			EnableTracking: true,
			TrackUsage:     true,
			RegisteredDate: spec.released,
		})
	}
	if _, err := db.UpsertCatalog(catalog); err != nil {
		log.Fatalf("writing catalog: %v", err)
	}

	total := 0
	for _, spec := range specs {
		events := generateEvents(spec, base)
		n, err := db.InsertEvents(events)
		if err != nil {
			log.Fatalf("inserting events for %s: %v", spec.name, err)
		}
		total += n
		fmt.Printf("  %s: %d events\n", spec.name, n)
	}

	fmt.Printf("Fixture DB written to %s (%d events)\n", *out, total)
}

func generateEvents(spec appSpec, base time.Time) []store.UsageEvent {
	events := make([]store.UsageEvent, 0, len(spec.users)*spec.activeDays)
	for i, user := range spec.users {
		for day := range spec.activeDays {
			// Stagger users so not everyone shares every day.
			date := base.AddDate(0, 0, day+i)
			events = append(events, store.UsageEvent{
				MonitorAppVersion: "2.0.0",
				Platform:          "windows",
				User:              user,
				ApplicationName:   spec.name,
				AppVersion:        spec.version,
				LogDate:           date.Format("2006-01-02"),
				LegacyApp:         spec.legacy,
				DurationSeconds:   spec.dailySeconds,
			})
		}
	}
	return events
}
