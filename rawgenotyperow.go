package pgsinherit

// Map columns in a consumer raw genotype export to their positions. Exports
// that split the call into two allele columns (AncestryDNA style) carry
// RawAllele2 as a fifth column.
const (
	RawRSID int = iota
	RawChromosome
	RawPosition
	RawGenotype
	RawAllele2
)

type RawGenotypeRow struct {
	RSID       string
	Chromosome string
	Position   uint32
	Genotype   string // Two allele characters, or "--" when not called
}
