package prsparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

var (
	ErrMissingColumn = errors.New("required column missing from header")
	ErrNoHeader      = errors.New("header has not been read")
)

type PRSParser struct {
	CSVReaderSettings *csv.Reader
	Layout            Layout

	colRSID         int
	colEffectAllele int
	colScore        int
	colFrequency    int // -1 if absent
	headerRead      bool
}

func New(layout string) (*PRSParser, error) {
	l, exists := Layouts[layout]
	if !exists {
		return nil, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", layout, LayoutNames())
	}

	return NewWithLayout(l)
}

func NewWithLayout(layout Layout) (*PRSParser, error) {
	if layout.RSIDHeader == "" || layout.EffectAlleleHeader == "" || layout.ScoreHeader == "" {
		return nil, fmt.Errorf("Layout %+v must name the rsid, effect allele and score headers", layout)
	}

	n := &PRSParser{}
	n.Layout = layout
	n.CSVReaderSettings = &csv.Reader{}
	n.CSVReaderSettings.Comma = layout.Delimiter
	n.CSVReaderSettings.Comment = layout.Comment
	n.CSVReaderSettings.FieldsPerRecord = -1
	n.CSVReaderSettings.LazyQuotes = true

	return n, nil
}

// NewReader returns a csv.Reader configured for the layout's delimiter and
// comment character.
func (prsp *PRSParser) NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = prsp.CSVReaderSettings.Comma
	reader.Comment = prsp.CSVReaderSettings.Comment
	reader.FieldsPerRecord = prsp.CSVReaderSettings.FieldsPerRecord
	reader.LazyQuotes = prsp.CSVReaderSettings.LazyQuotes
	reader.ReuseRecord = true

	return reader
}

// ReadHeader locates the layout's columns by name in the header row.
func (prsp *PRSParser) ReadHeader(row []string) error {
	idx := make(map[string]int, len(row))
	for i, name := range row {
		name = strings.TrimSpace(name)
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	prsp.colRSID = lookup(prsp.Layout.RSIDHeader)
	prsp.colEffectAllele = lookup(prsp.Layout.EffectAlleleHeader)
	prsp.colScore = lookup(prsp.Layout.ScoreHeader)

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	prsp.colFrequency = -1
	if prsp.Layout.FrequencyHeader != "" {
		if i, ok := idx[prsp.Layout.FrequencyHeader]; ok {
			prsp.colFrequency = i
		}
	}

	prsp.headerRead = true

	return nil
}

// HasFrequencyColumn reports whether the header carried an allele frequency
// column.
func (prsp *PRSParser) HasFrequencyColumn() bool {
	return prsp.headerRead && prsp.colFrequency >= 0
}

func (prsp *PRSParser) ParseRow(row []string) (PRS, error) {
	p := PRS{}

	if !prsp.headerRead {
		return p, ErrNoHeader
	}

	need := prsp.colRSID
	for _, col := range []int{prsp.colEffectAllele, prsp.colScore, prsp.colFrequency} {
		if col > need {
			need = col
		}
	}
	if len(row) <= need {
		return p, fmt.Errorf("row has %d columns but the header requires at least %d", len(row), need+1)
	}

	p.RSID = strings.TrimSpace(row[prsp.colRSID])
	p.EffectAllele = strings.ToUpper(strings.TrimSpace(row[prsp.colEffectAllele]))

	if score, err := strconv.ParseFloat(strings.TrimSpace(row[prsp.colScore]), 64); err != nil {
		return p, err
	} else {
		p.Score = score
	}

	if prsp.colFrequency >= 0 {
		cell := strings.TrimSpace(row[prsp.colFrequency])
		if cell != "" && !strings.EqualFold(cell, "NA") {
			freq, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return p, err
			}
			p.AlleleFrequency = null.FloatFrom(freq)
		}
	}

	return p, nil
}
