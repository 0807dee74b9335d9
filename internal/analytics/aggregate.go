package analytics

import (
	"math"
	"sort"
)

// KV is one ranked aggregation entry.
type KV struct {
	Key   string
	Value float64
}

// GroupSum accumulates value(row) into buckets keyed by key(row).
func GroupSum[T any](
	rows []T, key func(T) string, value func(T) float64,
) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range rows {
		out[key(r)] += value(r)
	}
	return out
}

// Rank orders a mapping descending by value, ties broken by
// ascending key so repeated calls on identical input are
// byte-identical.
func Rank(m map[string]float64) []KV {
	out := make([]KV, 0, len(m))
	for k, v := range m {
		out = append(out, KV{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// TopN ranks a mapping and truncates to n entries. n must be
// positive.
func TopN(m map[string]float64, n int) ([]KV, error) {
	if n <= 0 {
		return nil, InvalidParam("top_n", "must be positive")
	}
	ranked := Rank(m)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// PercentageBreakdown converts values to percentages of their sum.
// An all-zero (or empty) mapping yields all-zero percentages, never
// NaN.
func PercentageBreakdown(m map[string]float64) map[string]float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if total == 0 {
			out[k] = 0
			continue
		}
		out[k] = 100 * v / total
	}
	return out
}

// Median returns the standard median of values; the input need not
// be sorted. An empty input is an EmptyDataset error so callers can
// distinguish "no data" from a legitimate zero.
func Median(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, EmptyDataset("median of empty dataset")
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2, nil
	}
	return sorted[n/2], nil
}

// Percentile returns the p-th percentile (0-100) of a sorted slice
// using linear interpolation between ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// round2 rounds to two decimal places for hour/percentage display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// hours converts seconds to rounded hours.
func hours(seconds int64) float64 {
	return round2(float64(seconds) / 3600)
}
