package inherit

import (
	"context"
	"fmt"

	fet "github.com/glycerine/golang-fisher-exact"
	"gopkg.in/guregu/null.v3"

	"github.com/carbocation/pgsinherit/hwe"
	"github.com/carbocation/pgsinherit/pgs"
)

// Segregation compares the children drawn at one marker with Mendel's ratios.
type Segregation struct {
	RSID string

	// Genotypes are the distinct genotypes a child can carry at the marker.
	// Observed counts the children drawn with each, and Expected is each
	// one's Mendelian proportion.
	Genotypes []pgs.Genotype
	Observed  []float64
	Expected  []float64

	ChiSquare float64
	P         float64

	// TransmissionP is the two sided Fisher exact P value for both parents
	// passing on the same allele equally often. It is only valid when the
	// parents are heterozygous for the same two alleles.
	TransmissionP null.Float
}

// Segregation draws s.Trials children of a and b from the same random streams
// that Simulate scores, and tests every marker at which the children can
// differ. A sound simulation gives P values spread evenly over [0,1].
func (s Simulator) Segregation(ctx context.Context, a, b Parent, model *pgs.Model) ([]Segregation, error) {
	if model == nil {
		return nil, fmt.Errorf("no model to simulate")
	}
	if s.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", s.Trials)
	}

	cross, err := NewCross(model, a, b)
	if err != nil {
		return nil, err
	}

	seed, err := s.seed()
	if err != nil {
		return nil, err
	}

	// Tallies are keyed by the genotype as drawn: the first allele came from
	// a and the second from b.
	tallies := make([]map[pgs.Genotype]int, len(cross.varying))
	for j := range tallies {
		tallies[j] = make(map[pgs.Genotype]int, 4)
	}

	child := cross.NewChild()
	random := make([]byte, cross.RandomBytes())

	for start, chunk := 0, 0; start < s.Trials; start, chunk = start+ChunkSize, chunk+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + ChunkSize
		if end > s.Trials {
			end = s.Trials
		}

		rng := chunkRNG(seed, chunk)
		for t := start; t < end; t++ {
			rng.Read(random)
			cross.Draw(random, child)
			for j, i := range cross.varying {
				tallies[j][child[i]]++
			}
		}
	}

	out := make([]Segregation, 0, len(cross.varying))
	for j, i := range cross.varying {
		seg, err := cross.segregation(j, tallies[j])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", model.Markers[i].RSID, err)
		}
		seg.RSID = model.Markers[i].RSID
		out = append(out, seg)
	}

	return out, nil
}

func (c *Cross) segregation(j int, drawn map[pgs.Genotype]int) (Segregation, error) {
	seg := Segregation{}

	class := make(map[pgs.Genotype]int, 4)
	for _, g := range c.children[j] {
		u := unordered(g)
		k, seen := class[u]
		if !seen {
			k = len(seg.Genotypes)
			class[u] = k
			seg.Genotypes = append(seg.Genotypes, u)
			seg.Observed = append(seg.Observed, 0)
			seg.Expected = append(seg.Expected, 0)
		}
		seg.Expected[k] += 0.25
	}

	for g, n := range drawn {
		k, ok := class[unordered(g)]
		if !ok {
			return seg, fmt.Errorf("drew genotype %s, which neither parent can pass on", g)
		}
		seg.Observed[k] += float64(n)
	}

	var err error
	seg.ChiSquare, seg.P, err = hwe.GoodnessOfFit(seg.Observed, seg.Expected)
	if err != nil {
		return seg, err
	}

	// Allele k&1 of the first parent and allele (k>>1)&1 of the second.
	a0, a1 := c.children[j][0][0], c.children[j][1][0]
	b0, b1 := c.children[j][0][1], c.children[j][2][1]
	if a0 != a1 && ((a0 == b0 && a1 == b1) || (a0 == b1 && a1 == b0)) {
		var fromA, otherA, fromB, otherB int
		for g, n := range drawn {
			if g[0] == a0 {
				fromA += n
			} else {
				otherA += n
			}
			if g[1] == a0 {
				fromB += n
			} else {
				otherB += n
			}
		}

		_, _, _, twop := fet.FisherExactTest(fromA, otherA, fromB, otherB)
		seg.TransmissionP = null.FloatFrom(twop)
	}

	return seg, nil
}

func unordered(g pgs.Genotype) pgs.Genotype {
	if len(g) == 2 && g[0] > g[1] {
		return pgs.Genotype([]byte{g[1], g[0]})
	}

	return g
}
