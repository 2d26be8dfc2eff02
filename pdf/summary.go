package pdf

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"sd"`
	Median float64 `json:"median"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
}

// Summarize describes the distribution of probabilities. It does not modify
// its input.
func Summarize(probabilities []float64) Summary {
	if len(probabilities) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(probabilities))
	copy(sorted, probabilities)
	sort.Float64s(sorted)

	out := Summary{
		N:      len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P05:    stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}

	if len(sorted) > 1 {
		out.StdDev = stat.StdDev(sorted, nil)
	}

	return out
}
