// Package pdf bins simulated probabilities into a probability density.
package pdf

import (
	"fmt"
	"math"
	"strconv"

	"github.com/carbocation/pgsinherit/pgs"
)

const DefaultBuckets = 20

type Bucket struct {
	LowerBound float64 `json:"lower_bound" csv:"lower_bound"`

	// Label is LowerBound rounded for display.
	Label   string  `json:"label" csv:"label"`
	Density float64 `json:"density" csv:"density"`
}

// Build splits [min, max] of probabilities into equal width buckets and
// returns the fraction of probabilities falling in each. Buckets are half
// open except the last, which also holds max. When every probability is the
// same, a single bucket holding all of the density is returned.
func Build(probabilities []float64, buckets int) ([]Bucket, error) {
	if len(probabilities) == 0 {
		return nil, fmt.Errorf("no probabilities to bin")
	}
	if buckets <= 0 {
		return nil, fmt.Errorf("bucket count must be positive, got %d", buckets)
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, p := range probabilities {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: cannot bin %v", pgs.ErrNumericInstability, p)
		}
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	spread := max - min
	precision := 3
	if spread < 0.001 {
		precision = 4
	}

	if spread == 0 {
		return []Bucket{{LowerBound: min, Label: label(min, precision), Density: 1}}, nil
	}

	width := spread / float64(buckets)
	counts := make([]int, buckets)
	for _, p := range probabilities {
		counts[bucketIndex(p, min, width, buckets)]++
	}

	n := float64(len(probabilities))
	out := make([]Bucket, buckets)
	for i := range out {
		lb := min + float64(i)*width
		out[i] = Bucket{
			LowerBound: lb,
			Label:      label(lb, precision),
			Density:    float64(counts[i]) / n,
		}
	}

	return out, nil
}

func bucketIndex(p, min, width float64, buckets int) int {
	i := int((p - min) / width)
	if i >= buckets {
		return buckets - 1
	}
	if i < 0 {
		return 0
	}

	return i
}

func label(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}
