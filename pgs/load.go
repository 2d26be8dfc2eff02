package pgs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/pgsinherit/prsparser"
)

// InterceptFunc derives a model's calibration intercept from the population
// prevalence of its trait.
type InterceptFunc func(prevalence float64, markers []Marker) (float64, error)

// LiabilityIntercept is the default InterceptFunc: the log-odds of the
// prevalence minus the population average score. This approximates the
// liability threshold calibration and is not exact.
func LiabilityIntercept(prevalence float64, markers []Marker) (float64, error) {
	if err := checkPrevalence(prevalence); err != nil {
		return 0, err
	}

	expected := 0.0
	for _, m := range markers {
		expected += ExpectedContribution(m)
	}

	return Logit(prevalence) - expected, nil
}

func checkPrevalence(prevalence float64) error {
	if !(prevalence > 0 && prevalence < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidPrevalence, prevalence)
	}

	return nil
}

// Load parses a PGS Catalog scoring file and calibrates it to prevalence.
func Load(r io.Reader, prevalence float64) (*Model, error) {
	return LoadWithIntercept(r, prevalence, LiabilityIntercept)
}

// LoadWithIntercept is Load with a caller chosen intercept derivation.
func LoadWithIntercept(r io.Reader, prevalence float64, intercept InterceptFunc) (*Model, error) {
	l := Loader{Layout: prsparser.Layouts[prsparser.DefaultLayout], Intercept: intercept}

	return l.Load(r, prevalence)
}

// Loader reads scoring files of one layout.
type Loader struct {
	Layout    prsparser.Layout
	Intercept InterceptFunc

	// SkipIndels drops rows whose effect allele is longer than one letter
	// instead of rejecting the file. Genotypes are single letter pairs, so
	// such markers could never be scored.
	SkipIndels bool
}

// Load reads every marker from r. Any bad row rejects the whole file.
func (l Loader) Load(r io.Reader, prevalence float64) (*Model, error) {
	if err := checkPrevalence(prevalence); err != nil {
		return nil, err
	}

	parser, err := prsparser.NewWithLayout(l.Layout)
	if err != nil {
		return nil, err
	}

	reader := parser.NewReader(r)

	// Comment lines carry the catalog metadata, so we see them ourselves.
	reader.Comment = 0

	header := headerMetadata{}
	var markers []Marker
	seen := make(map[string]int)
	headerRead := false
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, RowError{Line: perr.Line, Message: perr.Err.Error()}
			}
			return nil, err
		}

		line, _ := reader.FieldPos(0)

		if len(row) > 0 && strings.HasPrefix(row[0], string(l.Layout.Comment)) {
			header.parse(strings.Join(row, string(l.Layout.Delimiter)))
			continue
		}

		if !headerRead {
			if err := parser.ReadHeader(row); err != nil {
				return nil, RowError{Line: line, Message: err.Error()}
			}
			headerRead = true
			continue
		}

		prs, err := parser.ParseRow(row)
		if err != nil {
			return nil, RowError{Line: line, Message: err.Error()}
		}

		if l.SkipIndels && isIndel(prs.EffectAllele) {
			skipped++
			continue
		}

		marker, err := markerFromPRS(prs, line, l.Layout)
		if err != nil {
			return nil, err
		}

		if prior, dup := seen[marker.RSID]; dup {
			return nil, RowError{Line: line, Column: l.Layout.RSIDHeader, Message: fmt.Sprintf("%s was already seen on line %d", marker.RSID, prior)}
		}
		seen[marker.RSID] = line

		markers = append(markers, marker)
	}

	if !headerRead {
		return nil, fmt.Errorf("%w: no header line was found", ErrMalformedScoringFile)
	}

	if skipped > 0 {
		log.Printf("Skipped %d markers with multi-letter effect alleles\n", skipped)
	}

	interceptFn := l.Intercept
	if interceptFn == nil {
		interceptFn = LiabilityIntercept
	}

	intercept := 0.0
	if len(markers) > 0 {
		intercept, err = interceptFn(prevalence, markers)
		if err != nil {
			return nil, err
		}
	}

	model, err := NewModel(header.id, markers, intercept)
	if err != nil {
		return nil, err
	}
	model.Prevalence = prevalence
	header.apply(model)

	return model, nil
}

func markerFromPRS(prs prsparser.PRS, line int, layout prsparser.Layout) (Marker, error) {
	if prs.RSID == "" {
		return Marker{}, RowError{Line: line, Column: layout.RSIDHeader, Message: "empty marker identifier"}
	}

	if isIndel(prs.EffectAllele) {
		return Marker{}, RowError{Line: line, Column: layout.EffectAlleleHeader, Message: fmt.Sprintf("effect allele %q is an indel; only single letter alleles can be scored (set SkipIndels to drop such markers)", prs.EffectAllele)}
	}

	if len(prs.EffectAllele) != 1 || !isAlleleLetter(prs.EffectAllele[0]) {
		return Marker{}, RowError{Line: line, Column: layout.EffectAlleleHeader, Message: fmt.Sprintf("effect allele %q is not a single allele letter", prs.EffectAllele)}
	}

	if math.IsNaN(prs.Score) || math.IsInf(prs.Score, 0) {
		return Marker{}, RowError{Line: line, Column: layout.ScoreHeader, Message: fmt.Sprintf("effect weight %v is not finite", prs.Score)}
	}

	if f := prs.AlleleFrequency; f.Valid && !(f.Float64 >= 0 && f.Float64 <= 1) {
		return Marker{}, RowError{Line: line, Column: layout.FrequencyHeader, Message: fmt.Sprintf("allele frequency %v is outside [0,1]", f.Float64)}
	}

	return Marker{
		RSID:         prs.RSID,
		EffectAllele: prs.EffectAllele,
		Weight:       prs.Score,
		Frequency:    prs.AlleleFrequency,
	}, nil
}

// isIndel reports whether allele is a run of two or more allele letters.
func isIndel(allele string) bool {
	if len(allele) < 2 {
		return false
	}
	for i := 0; i < len(allele); i++ {
		if !isAlleleLetter(allele[i]) {
			return false
		}
	}

	return true
}

// headerMetadata collects the "#key=value" lines that the PGS Catalog places
// above the header. Older files use "# Key Name = value".
type headerMetadata struct {
	id             string
	name           string
	traitReported  string
	traitEFO       string
	citation       string
	variantsNumber int
}

func (h *headerMetadata) parse(line string) {
	line = strings.TrimLeft(line, "#")
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return
	}

	key := strings.ToLower(strings.Join(strings.Fields(parts[0]), "_"))
	value := strings.TrimSpace(parts[1])

	switch key {
	case "pgs_id":
		h.id = value
	case "pgs_name":
		h.name = value
	case "trait_reported", "reported_trait":
		h.traitReported = value
	case "trait_efo":
		h.traitEFO = value
	case "citation":
		h.citation = value
	case "variants_number", "number_of_variants":
		if n, err := strconv.Atoi(value); err == nil {
			h.variantsNumber = n
		}
	}
}

func (h headerMetadata) apply(m *Model) {
	m.Name = h.name
	m.Publication.Citation = h.citation

	if h.traitReported != "" || h.traitEFO != "" {
		m.Traits = []Trait{{ID: h.traitEFO, Label: h.traitReported}}
	}

	if h.variantsNumber > 0 {
		m.VariantsNumber = h.variantsNumber
	}
}
