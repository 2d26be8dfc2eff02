package pgs

import (
	"fmt"
	"math"
	"sort"

	"gopkg.in/guregu/null.v3"

	"github.com/carbocation/pgsinherit/hwe"
)

// Marker is one weighted variant of a polygenic score.
type Marker struct {
	RSID         string  `db:"rsid"`
	EffectAllele string  `db:"effect_allele"`
	Weight       float64 `db:"weight"`

	// Frequency of the effect allele in the reference population, if known.
	Frequency null.Float `db:"frequency"`
}

// ExpectedContribution is the population average log-odds contribution of m:
// its weight times the Hardy-Weinberg expected dosage of the effect allele.
// Both the intercept calibration and the scoring of missing genotypes use it.
// A marker without a known frequency contributes nothing.
func ExpectedContribution(m Marker) float64 {
	if !m.Frequency.Valid {
		return 0
	}

	return m.Weight * hwe.ExpectedDosage(m.Frequency.Float64)
}

// Contribution is the log-odds contribution of m for an individual carrying g.
// Missing genotypes contribute their population average. The zero Genotype
// (no entry at all) contributes nothing.
func (m Marker) Contribution(g Genotype) float64 {
	switch {
	case g == "":
		return 0
	case g.IsMissing():
		return ExpectedContribution(m)
	}

	return float64(g.Dosage(m.EffectAllele)) * m.Weight
}

type Trait struct {
	ID    string `json:"id" db:"trait_id"`
	Label string `json:"label" db:"label"`
}

type Publication struct {
	Citation string `json:"citation,omitempty" db:"citation"`
	DOI      string `json:"doi,omitempty" db:"doi"`
}

// Model is a parsed polygenic score. It is read-only once built and may be
// shared between concurrent analyses.
type Model struct {
	ID             string
	Name           string
	Publication    Publication
	Traits         []Trait
	VariantsNumber int
	Prevalence     float64
	Intercept      float64

	// Markers are ordered by descending absolute weight.
	Markers []Marker

	index map[string]int
}

// NewModel validates markers and returns a model holding them in descending
// order of absolute weight. Ties keep their input order.
func NewModel(id string, markers []Marker, intercept float64) (*Model, error) {
	if len(markers) == 0 {
		return nil, fmt.Errorf("%w: model %s has no markers", ErrMalformedScoringFile, id)
	}

	sorted := make([]Marker, len(markers))
	copy(sorted, markers)
	SortMarkers(sorted)

	m := &Model{
		ID:             id,
		Intercept:      intercept,
		Markers:        sorted,
		VariantsNumber: len(sorted),
		index:          make(map[string]int, len(sorted)),
	}

	for i, marker := range sorted {
		if _, dup := m.index[marker.RSID]; dup {
			return nil, fmt.Errorf("%w: marker %s appears more than once", ErrMalformedScoringFile, marker.RSID)
		}
		m.index[marker.RSID] = i
	}

	return m, nil
}

// SortMarkers orders markers by descending absolute weight, keeping ties in
// place.
func SortMarkers(markers []Marker) {
	sort.SliceStable(markers, func(i, j int) bool {
		return math.Abs(markers[i].Weight) > math.Abs(markers[j].Weight)
	})
}

// Marker looks up a marker by its identifier.
func (m *Model) Marker(rsid string) (Marker, bool) {
	if m.index != nil {
		i, ok := m.index[rsid]
		if !ok {
			return Marker{}, false
		}
		return m.Markers[i], true
	}

	for _, marker := range m.Markers {
		if marker.RSID == rsid {
			return marker, true
		}
	}

	return Marker{}, false
}

// RSIDs lists the marker identifiers in model order.
func (m *Model) RSIDs() []string {
	out := make([]string, 0, len(m.Markers))
	for _, marker := range m.Markers {
		out = append(out, marker.RSID)
	}

	return out
}

// WithIntercept returns a shallow copy of m that scores against intercept
// instead of the calibrated one.
func (m *Model) WithIntercept(intercept float64) *Model {
	out := *m
	out.Intercept = intercept

	return &out
}

// LogOdds sums the contribution of every model marker that has an entry in
// genotypes, plus the intercept. Markers absent from genotypes are skipped.
func (m *Model) LogOdds(genotypes map[string]Genotype) float64 {
	sum := m.Intercept
	for _, marker := range m.Markers {
		g, exists := genotypes[marker.RSID]
		if !exists {
			continue
		}
		sum += marker.Contribution(g)
	}

	return sum
}

// Probability is the calibrated probability of the trait for an individual
// with the given genotypes.
func (m *Model) Probability(genotypes map[string]Genotype) float64 {
	return InverseLogit(m.LogOdds(genotypes))
}

// ProbabilityAligned is Probability for a genotype slice aligned with
// m.Markers, where the zero Genotype stands for an absent entry. It does not
// allocate.
func (m *Model) ProbabilityAligned(genotypes []Genotype) float64 {
	sum := m.Intercept
	for i, marker := range m.Markers {
		if i >= len(genotypes) {
			break
		}
		sum += marker.Contribution(genotypes[i])
	}

	return InverseLogit(sum)
}

// Align lays genotypes out in model marker order, leaving the zero Genotype
// for markers without an entry.
func (m *Model) Align(genotypes map[string]Genotype) []Genotype {
	out := make([]Genotype, len(m.Markers))
	for i, marker := range m.Markers {
		out[i] = genotypes[marker.RSID]
	}

	return out
}
