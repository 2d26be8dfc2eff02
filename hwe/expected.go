package hwe

// GenotypeFrequencies returns the Hardy-Weinberg expected frequencies of the
// homozygous effect, heterozygous, and homozygous other genotypes for an
// effect allele at frequency p.
func GenotypeFrequencies(p float64) (AA, Aa, aa float64) {
	q := 1.0 - p

	return p * p, 2.0 * p * q, q * q
}

// ExpectedDosage is the expected number of effect allele copies carried by a
// random diploid individual when the effect allele has frequency p. Under
// Hardy-Weinberg this is 2p: 2*p^2 + 1*2pq.
func ExpectedDosage(p float64) float64 {
	AA, Aa, _ := GenotypeFrequencies(p)

	return 2.0*AA + Aa
}
