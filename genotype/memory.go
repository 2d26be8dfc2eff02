package genotype

import (
	"context"
	"fmt"

	"github.com/carbocation/pgsinherit/pgs"
)

// MapResolver holds raw genotype calls in memory, keyed by individual and then
// by rsid. It is a Resolver, a Source, and a ChipLookup in which every
// individual is its own chip. It must not be modified while in use.
type MapResolver map[string]map[string]string

func (m MapResolver) Fetch(ctx context.Context, individual, rsid string) (pgs.Genotype, error) {
	raw, found, err := m.Lookup(ctx, individual, rsid)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pgs.ErrGenotypeResolution, err)
	}
	if !found {
		return pgs.Missing, nil
	}

	g, err := pgs.ParseGenotype(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s at %s: %v", pgs.ErrGenotypeResolution, individual, rsid, err)
	}

	return g, nil
}

func (m MapResolver) Lookup(ctx context.Context, individual, rsid string) (string, bool, error) {
	calls, exists := m[individual]
	if !exists {
		return "", false, fmt.Errorf("individual %s is not known", individual)
	}

	raw, found := calls[rsid]

	return raw, found, nil
}

func (m MapResolver) Chip(ctx context.Context, individual string) (string, error) {
	if _, exists := m[individual]; !exists {
		return "", fmt.Errorf("individual %s is not known", individual)
	}

	return individual, nil
}
