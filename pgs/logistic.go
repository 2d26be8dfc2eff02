package pgs

import "math"

// Logit is ln(p/(1-p)).
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// InverseLogit is the logistic function 1/(1+e^-x), evaluated through e^-|x|
// so that it never overflows.
func InverseLogit(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}

	z := math.Exp(x)

	return z / (1 + z)
}
