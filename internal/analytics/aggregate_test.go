package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankDeterministicOrder(t *testing.T) {
	m := map[string]float64{
		"zeta":  10,
		"alpha": 10,
		"mid":   25,
		"tiny":  1,
	}
	want := []KV{
		{Key: "mid", Value: 25},
		{Key: "alpha", Value: 10}, // tie broken by key
		{Key: "zeta", Value: 10},
		{Key: "tiny", Value: 1},
	}
	for range 10 {
		if diff := cmp.Diff(want, Rank(m)); diff != "" {
			t.Fatalf("Rank mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestTopN(t *testing.T) {
	m := map[string]float64{"a": 3, "b": 2, "c": 1}

	got, err := TopN(m, 2)
	require.NoError(t, err)
	assert.Equal(t, []KV{{"a", 3}, {"b", 2}}, got)

	got, err = TopN(m, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = TopN(m, 0)
	assert.Equal(t, CodeInvalidParameter, CodeOf(err))

	_, err = TopN(m, -1)
	assert.Equal(t, CodeInvalidParameter, CodeOf(err))
}

func TestPercentageBreakdown(t *testing.T) {
	got := PercentageBreakdown(map[string]float64{"a": 30, "b": 10})
	assert.InDelta(t, 75, got["a"], 1e-9)
	assert.InDelta(t, 25, got["b"], 1e-9)

	// All-zero input yields zeros, never NaN.
	got = PercentageBreakdown(map[string]float64{"a": 0, "b": 0})
	assert.Equal(t, map[string]float64{"a": 0, "b": 0}, got)

	assert.Empty(t, PercentageBreakdown(nil))
}

func TestMedian(t *testing.T) {
	got, err := Median([]float64{5, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = Median([]float64{4, 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = Median([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)

	_, err = Median(nil)
	assert.Equal(t, CodeEmptyDataset, CodeOf(err))
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	in := []float64{9, 1, 5}
	_, err := Median(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 1, 5}, in)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	assert.Equal(t, 10.0, Percentile(sorted, 0))
	assert.Equal(t, 50.0, Percentile(sorted, 100))
	assert.Equal(t, 30.0, Percentile(sorted, 50))
	assert.InDelta(t, 46.0, Percentile(sorted, 90), 1e-9)
	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestGroupSum(t *testing.T) {
	type row struct {
		k string
		v float64
	}
	rows := []row{{"a", 1}, {"b", 2}, {"a", 3}}
	got := GroupSum(rows,
		func(r row) string { return r.k },
		func(r row) float64 { return r.v },
	)
	assert.Equal(t, map[string]float64{"a": 4, "b": 2}, got)
}
