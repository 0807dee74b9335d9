package analytics

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usagelens/usagelens/internal/store"
	"github.com/usagelens/usagelens/internal/storetest"
)

func crossFake() *storetest.Fake {
	return &storetest.Fake{Events: []store.UsageEvent{
		storetest.Event("alice", "editor", "2025-08-01", 3600),
		storetest.Event("alice", "chat", "2025-08-01", 1800),
		storetest.Event("alice", "mail", "2025-08-02", 900),
		storetest.Event("bob", "editor", "2025-08-01", 3600),
		storetest.Event("bob", "chat", "2025-08-03", 1800),
		storetest.Event("carol", "editor", "2025-08-04", 600),
	}}
}

func TestMultiAppUsers(t *testing.T) {
	rows, summary, err := MultiAppUsers(
		context.Background(), crossFake(),
		CrossParams{Range: augustRange(), MinApps: 2},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "alice", rows[0].User)
	assert.Equal(t, 3, rows[0].AppCount)
	assert.Equal(t, []string{"chat", "editor", "mail"},
		rows[0].Applications)
	assert.Equal(t, "bob", rows[1].User)

	assert.Equal(t, 3, summary["total_users"])
	assert.Equal(t, 2, summary["multi_app_users"])
}

func TestCommonAppCombinations(t *testing.T) {
	rows, _, err := CommonAppCombinations(
		context.Background(), crossFake(),
		CrossParams{Range: augustRange(), MinUsers: 2},
	)
	require.NoError(t, err)

	// Only chat+editor is shared by two users (alice, bob).
	want := []AppPairRow{
		{AppA: "chat", AppB: "editor", SharedUsers: 2},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestCommonAppCombinationsNoMatchesIsEmptyNotNil(t *testing.T) {
	rows, _, err := CommonAppCombinations(
		context.Background(), crossFake(),
		CrossParams{Range: augustRange(), MinUsers: 5},
	)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestCommonAppCombinationsExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := CommonAppCombinations(
		ctx, crossFake(),
		CrossParams{Range: augustRange(), MinUsers: 1},
	)
	assert.Equal(t, CodeTimeout, CodeOf(err))
}

func TestUsagePercentageBreakdownSumsTo100(t *testing.T) {
	rows, _, err := UsagePercentageBreakdown(
		context.Background(), crossFake(),
		CrossParams{Range: augustRange()},
	)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var sum float64
	for _, r := range rows {
		sum += r.PctOfTotal
	}
	assert.InDelta(t, 100, sum, 0.05)

	// Descending by hours, editor first.
	assert.Equal(t, "editor", rows[0].ApplicationName)
}

func TestUserAppMatrix(t *testing.T) {
	rows, summary, err := UserAppMatrix(
		context.Background(), crossFake(),
		CrossParams{Range: augustRange()},
	)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Ordered by user.
	assert.Equal(t, "alice", rows[0].User)
	assert.Equal(t, 1.0, rows[0].AppHours["editor"])
	assert.Equal(t, 0.5, rows[0].AppHours["chat"])
	assert.Equal(t, "carol", rows[2].User)
	assert.Len(t, rows[2].AppHours, 1)

	assert.Equal(t, 3, summary["applications"])
}
