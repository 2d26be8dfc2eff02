package hwe

import (
	"fmt"
	"math"

	"github.com/BenLubar/memoize"
	"github.com/tokenme/probab/dst"
)

// Building a chi square CDF is not free, and the same handful of degrees of
// freedom are requested over and over.
var memoizedChiSquareCDF = memoize.Memoize(func(df int64) func(float64) float64 {
	return dst.ChiSquareCDF(df)
})

// ChiSquare returns the Pearson chi square statistic comparing observed counts
// with expected counts. Categories with zero expectation must also have zero
// observations; they are skipped.
func ChiSquare(observed, expected []float64) (float64, error) {
	if len(observed) != len(expected) {
		return 0, fmt.Errorf("observed has %d categories but expected has %d", len(observed), len(expected))
	}

	chi := 0.0
	for i := range observed {
		if expected[i] == 0 {
			if observed[i] != 0 {
				return math.Inf(1), nil
			}
			continue
		}
		chi += math.Pow(observed[i]-expected[i], 2) / expected[i]
	}

	return chi, nil
}

// GoodnessOfFit tests observed category counts against expected proportions
// (which are rescaled to the observed total) and returns the chi square
// statistic and its P value with len(proportions)-1 degrees of freedom.
func GoodnessOfFit(observed, proportions []float64) (chi, p float64, err error) {
	if len(proportions) < 2 {
		return 0, 0, fmt.Errorf("at least 2 categories are required, got %d", len(proportions))
	}

	total, sumProp := 0.0, 0.0
	for i := range observed {
		total += observed[i]
	}
	for _, v := range proportions {
		sumProp += v
	}
	if total == 0 || sumProp == 0 {
		return 0, 0, fmt.Errorf("no observations or no expectation to compare")
	}

	expected := make([]float64, len(proportions))
	for i, v := range proportions {
		expected[i] = total * v / sumProp
	}

	chi, err = ChiSquare(observed, expected)
	if err != nil {
		return 0, 0, err
	}
	if math.IsInf(chi, 1) {
		return chi, 0, nil
	}

	cdf := memoizedChiSquareCDF.(func(int64) func(float64) float64)(int64(len(proportions) - 1))

	return chi, 1.0 - cdf(chi), nil
}
