package analytics

import (
	"math"
	"sort"
)

// jurisdictionThresholds adjusts anomaly sensitivity per market: volatile
// markets tolerate larger deviations before flagging.
var jurisdictionThresholds = map[string]float64{
	"AR":    4.0,
	"BR":    3.5,
	"LATAM": 3.8,
	"ASIA":  3.2,
	"EU":    3.0,
}

const madEpsilon = 1e-8

// detectAnomalies flags points whose modified z-score exceeds the
// threshold. The modified z-score uses the median absolute deviation, which
// tolerates the outliers it is trying to find.
func detectAnomalies(series []float64, threshold float64) (values []float64, indexes []int) {
	med := median(series)

	deviations := make([]float64, len(series))
	for i, v := range series {
		deviations[i] = math.Abs(v - med)
	}
	mad := median(deviations)
	if mad == 0 {
		mad = madEpsilon
	}

	for i, v := range series {
		z := 0.6745 * (v - med) / mad
		if math.Abs(z) > threshold {
			values = append(values, v)
			indexes = append(indexes, i)
		}
	}
	return values, indexes
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// thresholdFor returns the jurisdiction-adjusted threshold, falling back to
// the caller's when the jurisdiction is unknown.
func thresholdFor(jurisdiction string, fallback float64) float64 {
	if t, ok := jurisdictionThresholds[jurisdiction]; ok {
		return t
	}
	return fallback
}
