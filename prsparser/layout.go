package prsparser

import (
	"sort"
	"strings"
)

// Layout names the header columns that carry each field of a scoring file.
// Column positions are resolved from the header line, so files may order
// their columns freely. FrequencyHeader is optional.
type Layout struct {
	Delimiter          rune
	Comment            rune
	RSIDHeader         string
	EffectAlleleHeader string
	ScoreHeader        string
	FrequencyHeader    string
}

var Layouts = map[string]Layout{
	"PGSCATALOG": {
		Delimiter:          '\t',
		Comment:            '#',
		RSIDHeader:         "rsID",
		EffectAlleleHeader: "effect_allele",
		ScoreHeader:        "effect_weight",
		FrequencyHeader:    "allelefrequency_effect",
	},
	"PGSCATALOG_HARMONIZED": {
		Delimiter:          '\t',
		Comment:            '#',
		RSIDHeader:         "hm_rsID",
		EffectAlleleHeader: "effect_allele",
		ScoreHeader:        "effect_weight",
		FrequencyHeader:    "allelefrequency_effect",
	},
}

// DefaultLayout is the layout of scoring files published by the PGS Catalog.
const DefaultLayout = "PGSCATALOG"

func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}
