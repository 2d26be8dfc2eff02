package pgsinherit

import (
	"bufio"
	"io"
	"strings"

	"github.com/csimplestring/go-csv/detector"
)

// sniffLines is how many data lines are handed to the delimiter detector.
const sniffLines = 20

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// SniffDelimiter is DetermineDelimiter for files that open with a block of
// comment lines, as consumer genotype exports do. Lines starting with comment
// are skipped before up to sniffLines data lines are inspected. Tab is assumed
// when no data lines are present.
func SniffDelimiter(r io.Reader, comment rune) (rune, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sample strings.Builder
	kept := 0
	for kept < sniffLines && scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, string(comment)) {
			continue
		}
		sample.WriteString(line)
		sample.WriteByte('\n')
		kept++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	if kept == 0 {
		return '\t', nil
	}

	return DetermineDelimiter(strings.NewReader(sample.String())), nil
}
