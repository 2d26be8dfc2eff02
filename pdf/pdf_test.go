package pdf

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/carbocation/pgsinherit/pgs"
)

func TestBuildNormalized(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for _, n := range []int{1, 2, 17, 1000, 20000} {
		for _, buckets := range []int{1, 3, 20, 101} {
			probs := make([]float64, n)
			for i := range probs {
				probs[i] = r.Float64()
			}

			out, err := Build(probs, buckets)
			if err != nil {
				t.Fatal(err)
			}

			sum := 0.0
			for _, b := range out {
				if b.Density < 0 {
					t.Errorf("n=%d buckets=%d: negative density %v", n, buckets, b.Density)
				}
				sum += b.Density
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("n=%d buckets=%d: densities sum to %v", n, buckets, sum)
			}
		}
	}
}

func TestBuildBuckets(t *testing.T) {
	out, err := Build([]float64{0.125, 0.25, 0.25, 0.375, 0.625}, 4)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 4 {
		t.Fatalf("Got %d buckets, expected 4", len(out))
	}

	// width 0.125: [0.125,0.25) [0.25,0.375) [0.375,0.5) [0.5,0.625]
	expected := []float64{0.2, 0.4, 0.2, 0.2}
	for i, b := range out {
		if math.Abs(b.Density-expected[i]) > 1e-12 {
			t.Errorf("Bucket %d: got density %v, expected %v", i, b.Density, expected[i])
		}
	}

	if out[0].Label != "0.125" || out[3].Label != "0.500" {
		t.Errorf("Got labels %q and %q", out[0].Label, out[3].Label)
	}
}

func TestBuildMaxIsKept(t *testing.T) {
	out, err := Build([]float64{0, 1}, 20)
	if err != nil {
		t.Fatal(err)
	}

	if out[19].Density != 0.5 {
		t.Errorf("Maximum landed outside the last bucket: %+v", out[19])
	}
}

func TestBuildNarrowLabels(t *testing.T) {
	out, err := Build([]float64{0.5, 0.5006}, 2)
	if err != nil {
		t.Fatal(err)
	}

	if out[0].Label != "0.5000" || out[1].Label != "0.5003" {
		t.Errorf("Got labels %q and %q", out[0].Label, out[1].Label)
	}
}

func TestBuildDegenerate(t *testing.T) {
	out, err := Build([]float64{0.42, 0.42, 0.42}, 20)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 1 || out[0].Density != 1 || out[0].LowerBound != 0.42 {
		t.Errorf("Got %+v, expected a single bucket at 0.42", out)
	}
}

func TestBuildRejects(t *testing.T) {
	if _, err := Build(nil, 20); err == nil {
		t.Error("Expected an error for no input")
	}
	if _, err := Build([]float64{0.1, 0.2}, 0); err == nil {
		t.Error("Expected an error for zero buckets")
	}
	if _, err := Build([]float64{0.1, math.NaN()}, 20); !errors.Is(err, pgs.ErrNumericInstability) {
		t.Errorf("Got %v for NaN input", err)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.5, 0.1, 0.3, 0.2, 0.4})

	if s.N != 5 || s.Min != 0.1 || s.Max != 0.5 {
		t.Errorf("Got %+v", s)
	}
	if math.Abs(s.Mean-0.3) > 1e-12 || math.Abs(s.Median-0.3) > 1e-12 {
		t.Errorf("Got mean %v median %v", s.Mean, s.Median)
	}
	if math.Abs(s.StdDev-math.Sqrt(0.025)) > 1e-12 {
		t.Errorf("Got sd %v", s.StdDev)
	}

	if one := Summarize([]float64{0.7}); one.StdDev != 0 || one.Median != 0.7 {
		t.Errorf("Got %+v", one)
	}
}
