package prsparser

import "gopkg.in/guregu/null.v3"

// PRS is one scored marker as it appears in a scoring file.
type PRS struct {
	RSID            string
	EffectAllele    string
	Score           float64
	AlleleFrequency null.Float // invalid when the column is absent or the cell is empty / NA
}
