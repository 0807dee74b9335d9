package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usagelens/usagelens/internal/dateutil"
	"github.com/usagelens/usagelens/internal/store"
	"github.com/usagelens/usagelens/internal/storetest"
)

func augustRange() dateutil.Range {
	return dateutil.Range{From: "2025-08-01", To: "2025-08-31"}
}

func usageFake() *storetest.Fake {
	return &storetest.Fake{
		Events: []store.UsageEvent{
			storetest.Event("alice", "ledgerbook", "2025-08-01", 3600),
			storetest.Event("alice", "ledgerbook", "2025-08-02", 3600),
			storetest.Event("bob", "ledgerbook", "2025-08-01", 1800),
			storetest.Event("bob", "meshchat", "2025-08-01", 900),
			// Outside the range, must not count.
			storetest.Event("alice", "ledgerbook", "2025-09-15", 9999),
		},
		Catalog: []store.CatalogEntry{
			{AppName: "ledgerbook", AppType: "productivity",
				Publisher: "Acme Software", CurrentVersion: "3.2.1"},
		},
	}
}

func TestUsageTimeStats(t *testing.T) {
	rows, summary, err := UsageTimeStats(
		context.Background(), usageFake(),
		UsageStatsParams{Range: augustRange()},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	lb := rows[0]
	assert.Equal(t, "ledgerbook", lb.ApplicationName)
	assert.Equal(t, int64(9000), lb.TotalSeconds)
	assert.Equal(t, 2.5, lb.TotalHours)
	assert.Equal(t, 3, lb.Sessions)
	assert.Equal(t, 2, lb.UniqueUsers)
	require.NotNil(t, lb.Publisher)
	assert.Equal(t, "Acme Software", *lb.Publisher)

	// meshchat is not in the catalog: null metadata, still listed.
	mc := rows[1]
	assert.Equal(t, "meshchat", mc.ApplicationName)
	assert.Nil(t, mc.Publisher)
	assert.Nil(t, mc.AppType)

	assert.InDelta(t, 90.91, lb.PctOfTotal, 0.01)
	assert.InDelta(t, 9.09, mc.PctOfTotal, 0.01)

	assert.Equal(t, 2, summary["total_applications"])
	assert.Equal(t, 2.75, summary["total_hours"])
}

func TestTopAppsByUsageTruncates(t *testing.T) {
	rows, _, err := TopAppsByUsage(
		context.Background(), usageFake(),
		UsageStatsParams{Range: augustRange(), TopN: 1},
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ledgerbook", rows[0].ApplicationName)
}

func TestUserCountStats(t *testing.T) {
	rows, summary, err := UserCountStats(
		context.Background(), usageFake(),
		UsageStatsParams{Range: augustRange()},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].UniqueUsers)
	assert.Equal(t, 100.0, rows[0].PctOfUsers)
	assert.Equal(t, 1, rows[1].UniqueUsers)
	assert.Equal(t, 50.0, rows[1].PctOfUsers)
	assert.Equal(t, 2, summary["total_users"])
}

func TestAverageUsageTimeDividesByActiveDays(t *testing.T) {
	rows, _, err := AverageUsageTime(
		context.Background(), usageFake(),
		UsageStatsParams{
			Range: augustRange(),
			User:  "alice", App: "ledgerbook",
		},
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 7200 seconds over 2 active days, not 2 events.
	assert.Equal(t, 2, rows[0].ActiveDays)
	assert.Equal(t, 3600.0, rows[0].AvgSecondsPerDay)
	assert.Equal(t, 1.0, rows[0].AvgHoursPerDay)
}

func TestPlatformUsageStats(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		{User: "alice", ApplicationName: "a", LogDate: "2025-08-01",
			Platform: "windows", DurationSeconds: 2700},
		{User: "bob", ApplicationName: "a", LogDate: "2025-08-01",
			Platform: "macos", DurationSeconds: 900},
	}}
	rows, _, err := PlatformUsageStats(
		context.Background(), fake,
		UsageStatsParams{Range: augustRange()},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "windows", rows[0].Platform)
	assert.Equal(t, 75.0, rows[0].PctOfTotal)
	assert.Equal(t, "macos", rows[1].Platform)
	assert.Equal(t, 25.0, rows[1].PctOfTotal)
}

func TestTotalUsagePeriod(t *testing.T) {
	rows, _, err := TotalUsagePeriod(
		context.Background(), usageFake(),
		UsageStatsParams{Range: augustRange()},
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, "2025-08-01", got.From)
	assert.Equal(t, 2.75, got.TotalHours)
	assert.Equal(t, 4, got.Events)
	assert.Equal(t, 4, got.Sessions)
	assert.Equal(t, 2, got.UniqueUsers)
	assert.Equal(t, 2, got.UniqueApps)
	assert.Equal(t, 2, got.ActiveDays)
	assert.InDelta(t, 1.38, got.AvgHoursPerDay, 0.01)
}

func TestUsageEmptyRangeYieldsEmptyRows(t *testing.T) {
	rows, _, err := UsageTimeStats(
		context.Background(), usageFake(),
		UsageStatsParams{Range: dateutil.Range{
			From: "2020-01-01", To: "2020-01-31",
		}},
	)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
