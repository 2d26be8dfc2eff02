// Package genotype resolves an individual's genotype at a marker, on behalf of
// the analysis engine.
package genotype

import (
	"context"

	"github.com/carbocation/pgsinherit/pgs"
)

// Resolver fetches one individual's genotype at one marker. It returns
// pgs.Missing when the marker could not be called for the individual, and an
// error wrapping pgs.ErrGenotypeResolution only when the lookup itself failed.
// Implementations must be safe for concurrent use.
type Resolver interface {
	Fetch(ctx context.Context, individual, rsid string) (pgs.Genotype, error)
}

// Source is raw genotype storage. found is false when the individual's
// genotyping panel does not carry rsid at all; a no-call on a carried marker is
// found with a raw value such as "--".
type Source interface {
	Lookup(ctx context.Context, individual, rsid string) (raw string, found bool, err error)
}

// ChipLookup names the genotyping panel an individual was typed on.
// Individuals sharing a chip share the same set of carried markers.
type ChipLookup interface {
	Chip(ctx context.Context, individual string) (string, error)
}
