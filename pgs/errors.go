package pgs

import (
	"errors"
	"fmt"
)

// Every failure surfaced by the engine wraps exactly one of these, so that
// errors.Is classifies it.
var (
	ErrInvalidPrevalence      = errors.New("prevalence must lie strictly between 0 and 1")
	ErrMalformedScoringFile   = errors.New("malformed scoring file")
	ErrModelNotFound          = errors.New("model not found")
	ErrGenotypeResolution     = errors.New("genotype resolution failed")
	ErrDegenerateDistribution = errors.New("degenerate distribution")
	ErrNumericInstability     = errors.New("numeric instability")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidPrevalence, "InvalidPrevalence"},
	{ErrMalformedScoringFile, "MalformedScoringFile"},
	{ErrModelNotFound, "ModelNotFound"},
	{ErrGenotypeResolution, "GenotypeResolutionFailure"},
	{ErrDegenerateDistribution, "DegenerateDistribution"},
	{ErrNumericInstability, "NumericInstability"},
}

// Kind names the class of err for reporting to users. Errors outside the
// taxonomy are "Internal"; a nil error has no kind.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return "Internal"
}

// RowError locates a problem within a scoring file.
type RowError struct {
	Line    int
	Column  string
	Message string
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: Line: %d, Message: %s", ErrMalformedScoringFile, e.Line, e.Message)
	}

	return fmt.Sprintf("%s: Line: %d, Column: %s, Message: %s", ErrMalformedScoringFile, e.Line, e.Column, e.Message)
}

func (e RowError) Unwrap() error {
	return ErrMalformedScoringFile
}
