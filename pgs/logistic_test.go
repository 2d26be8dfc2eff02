package pgs

import (
	"math"
	"testing"
)

func TestInverseLogitRoundTrip(t *testing.T) {
	for p := 0.001; p < 1; p += 0.001 {
		if got := InverseLogit(Logit(p)); math.Abs(got-p) > 1e-12 {
			t.Errorf("p=%v: round trip gave %v", p, got)
		}
	}
}

func TestInverseLogitExtremes(t *testing.T) {
	for _, x := range []float64{-1e6, -800, -50, 0, 50, 800, 1e6} {
		got := InverseLogit(x)
		if math.IsNaN(got) || got < 0 || got > 1 {
			t.Errorf("x=%v: got %v", x, got)
		}
	}

	if got := InverseLogit(0); got != 0.5 {
		t.Errorf("Got %v, expected 0.5", got)
	}
	if got := InverseLogit(1e6); got != 1 {
		t.Errorf("Got %v, expected 1", got)
	}
	if got := InverseLogit(-1e6); got != 0 {
		t.Errorf("Got %v, expected 0", got)
	}
}
