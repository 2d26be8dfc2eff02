package pgsinherit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RawGenotypeReader reads rsid-keyed genotype calls from 23andMe or
// AncestryDNA style text exports. Comment lines start with '#', and a header
// line whose first column is "rsid" is skipped.
type RawGenotypeReader struct {
	scanner   *bufio.Scanner
	delimiter string
	line      int
	err       error
}

func NewRawGenotypeReader(r io.Reader, delimiter rune) *RawGenotypeReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &RawGenotypeReader{
		scanner:   scanner,
		delimiter: string(delimiter),
	}
}

func (b *RawGenotypeReader) Err() error {
	if b.err != nil {
		return b.err
	}

	return b.scanner.Err()
}

// Line is the 1-based line number of the most recently read row.
func (b *RawGenotypeReader) Line() int {
	return b.line
}

// Read returns the next row, or nil at the end of input or on error. Check Err
// to tell the two apart.
func (b *RawGenotypeReader) Read() *RawGenotypeRow {
	for b.err == nil && b.scanner.Scan() {
		b.line++

		data := strings.TrimRight(b.scanner.Text(), "\r")
		if data == "" || strings.HasPrefix(data, "#") {
			continue
		}

		cols := strings.Split(data, b.delimiter)
		if b.delimiter == " " {
			cols = strings.Fields(data)
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}

		if strings.EqualFold(cols[RawRSID], "rsid") {
			continue
		}

		if len(cols) < RawGenotype+1 {
			b.err = fmt.Errorf("line %d: expected at least %d columns, found %d", b.line, RawGenotype+1, len(cols))
			return nil
		}

		row := &RawGenotypeRow{
			RSID:       cols[RawRSID],
			Chromosome: cols[RawChromosome],
			Genotype:   cols[RawGenotype],
		}

		if len(cols) > RawAllele2 {
			row.Genotype = cols[RawGenotype] + cols[RawAllele2]
		}

		coord64, err := strconv.ParseUint(cols[RawPosition], 10, 32)
		if err != nil {
			b.err = fmt.Errorf("line %d: %w", b.line, err)
			return nil
		}
		row.Position = uint32(coord64)

		return row
	}

	return nil
}
