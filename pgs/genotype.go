package pgs

import (
	"fmt"
	"strings"
)

// Genotype is a pair of allele letters such as "AG", or Missing. The zero
// value means that no genotype was recorded at all, which is not the same as
// Missing.
type Genotype string

// Missing marks a marker that was looked up but could not be called for the
// individual.
const Missing Genotype = "--"

// ParseGenotype normalizes a raw two letter call. No-calls ("--", "00", "",
// or anything containing a dash or a 0 allele) become Missing. A single
// letter is a hemizygous call, as exports give for male chrX, chrY and chrMT,
// and is read as the homozygous pair: "A" becomes "AA".
func ParseGenotype(raw string) (Genotype, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))

	if raw == "" || strings.ContainsAny(raw, "-0") {
		return Missing, nil
	}

	if len(raw) == 1 && isAlleleLetter(raw[0]) {
		return Genotype(raw + raw), nil
	}

	if len(raw) != 2 || !isAlleleLetter(raw[0]) || !isAlleleLetter(raw[1]) {
		return "", fmt.Errorf("genotype %q is not a pair of allele letters", raw)
	}

	return Genotype(raw), nil
}

func isAlleleLetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func (g Genotype) IsMissing() bool {
	return g == Missing
}

// IsHomozygous is true when both alleles are the same. Missing is not
// homozygous.
func (g Genotype) IsHomozygous() bool {
	return len(g) == 2 && !g.IsMissing() && g[0] == g[1]
}

// Dosage counts the copies of effectAllele carried by g: 2 when homozygous
// for it, 1 when heterozygous with it, else 0.
func (g Genotype) Dosage(effectAllele string) int {
	if g.IsMissing() || len(effectAllele) != 1 {
		return 0
	}

	dosage := 0
	for i := 0; i < len(g); i++ {
		if g[i] == effectAllele[0] {
			dosage++
		}
	}

	return dosage
}
