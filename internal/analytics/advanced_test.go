package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usagelens/usagelens/internal/store"
	"github.com/usagelens/usagelens/internal/storetest"
)

func TestHeavyUsersInclusiveThreshold(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		// exactly 1 hour: the boundary user counts as heavy
		storetest.Event("exact", "app", "2025-08-01", 3600),
		// just over
		storetest.Event("over", "app", "2025-08-01", 3601),
		// just under
		storetest.Event("under", "app", "2025-08-01", 3599),
	}}

	rows, summary, err := HeavyUsers(
		context.Background(), fake,
		HeavyUsersParams{Range: augustRange(), MinHours: 1},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "over", rows[0].User)
	assert.Equal(t, "exact", rows[1].User)
	assert.Equal(t, 3, summary["total_users"])
	assert.Equal(t, 2, summary["heavy_users"])
}

func TestHeavyUsersSumsAcrossSessions(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("alice", "a", "2025-08-01", 1800),
		storetest.Event("alice", "b", "2025-08-02", 1801),
	}}
	rows, _, err := HeavyUsers(
		context.Background(), fake,
		HeavyUsersParams{Range: augustRange(), MinHours: 1},
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Sessions)
	assert.Equal(t, 2, rows[0].AppsUsed)
}

func TestChurnRateAnalysis(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		// alice and bob active before; only alice after
		storetest.Event("alice", "app", "2025-07-01", 100),
		storetest.Event("bob", "app", "2025-07-15", 100),
		storetest.Event("alice", "app", "2025-08-10", 100),
		// carol appears only after the cut; not part of the rate
		storetest.Event("carol", "app", "2025-08-20", 100),
	}}

	res, _, err := ChurnRateAnalysis(
		context.Background(), fake, "2025-08-01", "",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, res.UsersBefore)
	assert.Equal(t, 2, res.UsersAfter) // alice + carol
	assert.Equal(t, 1, res.ChurnedUsers)
	assert.Equal(t, 1, res.RetainedUsers)
	assert.Equal(t, 50.0, res.ChurnRatePct)
}

func TestChurnRateBoundaryIsExclusiveBefore(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("alice", "app", "2025-07-31", 100),
		// exactly on the churn date counts as after
		storetest.Event("alice", "app", "2025-08-01", 100),
	}}
	res, _, err := ChurnRateAnalysis(
		context.Background(), fake, "2025-08-01", "",
	)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.ChurnRatePct)
	assert.Equal(t, 1, res.RetainedUsers)
}

func TestChurnRateNoUsersBefore(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("alice", "app", "2025-08-10", 100),
	}}
	_, _, err := ChurnRateAnalysis(
		context.Background(), fake, "2025-08-01", "",
	)
	assert.Equal(t, CodeInvalidParameter, CodeOf(err))
}

func TestInactiveUsers(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("stale", "app", "2025-06-01", 100),
		storetest.Event("fresh", "app", "2025-08-18", 100),
		storetest.Event("stale", "app", "2025-05-01", 100),
	}}

	rows, summary, err := InactiveUsers(
		context.Background(), fake,
		InactiveUsersParams{
			MinInactiveDays: 30,
			Today:           "2025-08-20",
		},
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "stale", rows[0].User)
	assert.Equal(t, "2025-06-01", rows[0].LastActive) // latest, not first
	assert.Equal(t, 80, rows[0].DaysInactive)
	assert.Equal(t, 2, summary["total_users"])
}

func TestMedianSessionLengthEmpty(t *testing.T) {
	fake := &storetest.Fake{}
	_, _, err := MedianSessionLength(
		context.Background(), fake,
		SessionParams{Range: augustRange()},
	)
	assert.Equal(t, CodeEmptyDataset, CodeOf(err))
}

func TestSessionLengthAnalysis(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("a", "app", "2025-08-01", 3600),
		storetest.Event("b", "app", "2025-08-01", 7200),
		storetest.Event("c", "app", "2025-08-01", 10800),
	}}
	rows, _, err := SessionLengthAnalysis(
		context.Background(), fake,
		SessionParams{Range: augustRange()},
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, 3, got.Sessions)
	assert.Equal(t, 6.0, got.TotalHours)
	assert.Equal(t, 2.0, got.AvgHours)
	assert.Equal(t, 2.0, got.MedianHours)
	assert.Equal(t, 1.0, got.MinHours)
	assert.Equal(t, 3.0, got.MaxHours)
}

func TestNewVsReturningUsers(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("alice", "app", "2025-07-10", 100),
		storetest.Event("alice", "app", "2025-08-05", 100),
		storetest.Event("bob", "app", "2025-08-06", 100),
	}}

	rows, _, err := NewVsReturningUsers(
		context.Background(), fake,
		TrendParams{Range: augustRange(), Period: "month"},
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// alice first seen in July: returning. bob first seen in
	// August: new.
	assert.Equal(t, "2025-08-01", rows[0].Bucket)
	assert.Equal(t, 1, rows[0].New)
	assert.Equal(t, 1, rows[0].Returning)
}

func TestGrowthTrendAnalysis(t *testing.T) {
	fake := &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("alice", "app", "2025-08-04", 3600),
		storetest.Event("alice", "app", "2025-08-11", 3600),
		storetest.Event("bob", "app", "2025-08-11", 3600),
	}}

	rows, _, err := GrowthTrendAnalysis(
		context.Background(), fake,
		TrendParams{Range: augustRange(), Period: "week", App: "app"},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// First bucket has no growth baseline.
	assert.Equal(t, 0.0, rows[0].UserGrowthPct)
	// Second week: 1 -> 2 users, 1h -> 2h.
	assert.Equal(t, 100.0, rows[1].UserGrowthPct)
	assert.Equal(t, 100.0, rows[1].HoursGrowthPct)
}
