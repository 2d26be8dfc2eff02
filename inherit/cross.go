// Package inherit simulates the offspring of two genotyped parents under
// Mendelian inheritance, assuming markers are in linkage equilibrium.
package inherit

import (
	"fmt"

	"github.com/carbocation/pgsinherit/pgs"
)

type Parent struct {
	ID        string
	Genotypes map[string]pgs.Genotype
}

// Cross holds, for every marker of a model, the four equally likely
// genotypes that a child of two parents can inherit there. Markers at which
// every child is identical are fixed and consume no randomness.
type Cross struct {
	base []pgs.Genotype

	varying  []int
	children [][4]pgs.Genotype
}

// NewCross prepares the mating of a and b over the markers of model. A marker
// missing from either parent's genotypes is absent in the child. A marker
// that is pgs.Missing in either parent is pgs.Missing in the child.
func NewCross(model *pgs.Model, a, b Parent) (*Cross, error) {
	c := &Cross{base: make([]pgs.Genotype, len(model.Markers))}

	for i, marker := range model.Markers {
		ga, inA := a.Genotypes[marker.RSID]
		gb, inB := b.Genotypes[marker.RSID]

		switch {
		case !inA || !inB:
			continue
		case ga.IsMissing() || gb.IsMissing():
			c.base[i] = pgs.Missing
			continue
		}

		if len(ga) != 2 {
			return nil, fmt.Errorf("%s has malformed genotype %q at %s", a.ID, ga, marker.RSID)
		}
		if len(gb) != 2 {
			return nil, fmt.Errorf("%s has malformed genotype %q at %s", b.ID, gb, marker.RSID)
		}

		var children [4]pgs.Genotype
		for k := range children {
			children[k] = pgs.Genotype([]byte{ga[k&1], gb[(k>>1)&1]})
		}
		c.base[i] = children[0]

		if ga.IsHomozygous() && gb.IsHomozygous() {
			continue
		}

		c.varying = append(c.varying, i)
		c.children = append(c.children, children)
	}

	return c, nil
}

// RandomBytes is how many random bytes Draw consumes per child.
func (c *Cross) RandomBytes() int {
	return (2*len(c.varying) + 7) / 8
}

// NewChild returns a genotype slice, aligned with the model's markers, that
// holds the fixed markers. Pass it to Draw to fill in the rest.
func (c *Cross) NewChild() []pgs.Genotype {
	child := make([]pgs.Genotype, len(c.base))
	copy(child, c.base)

	return child
}

// Draw picks one allele from each parent at every varying marker, using two
// bits of random per marker, and writes the child's genotypes into child.
// random must hold RandomBytes bytes.
func (c *Cross) Draw(random []byte, child []pgs.Genotype) {
	for j, i := range c.varying {
		bit := 2 * j
		k := (random[bit/8] >> (bit % 8)) & 3
		child[i] = c.children[j][k]
	}
}
