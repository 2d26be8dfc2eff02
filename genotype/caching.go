package genotype

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/carbocation/pgsinherit/pgs"
)

const chipCacheSize = 4096

// CachingResolver resolves genotypes from a Source while remembering, per
// chip, which markers that chip does not carry. Once a chip:rsid pair is known
// to be absent, no further lookups are made for it by any individual typed on
// that chip.
type CachingResolver struct {
	Source Source
	Chips  ChipLookup

	absent *lru.Cache[string, struct{}]
	chips  *lru.Cache[string, string]
}

// NewCachingResolver remembers up to absentSize absent chip:rsid pairs. If
// chips is nil, each individual is treated as its own chip.
func NewCachingResolver(source Source, chips ChipLookup, absentSize int) (*CachingResolver, error) {
	absent, err := lru.New[string, struct{}](absentSize)
	if err != nil {
		return nil, err
	}

	chipCache, err := lru.New[string, string](chipCacheSize)
	if err != nil {
		return nil, err
	}

	return &CachingResolver{
		Source: source,
		Chips:  chips,
		absent: absent,
		chips:  chipCache,
	}, nil
}

func (c *CachingResolver) Fetch(ctx context.Context, individual, rsid string) (pgs.Genotype, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	chip, err := c.chip(ctx, individual)
	if err != nil {
		return "", err
	}

	key := chip + ":" + rsid
	if c.absent.Contains(key) {
		return pgs.Missing, nil
	}

	raw, found, err := c.Source.Lookup(ctx, individual, rsid)
	if err != nil {
		return "", fmt.Errorf("%w: %s at %s: %v", pgs.ErrGenotypeResolution, individual, rsid, err)
	}

	if !found {
		// Adding the same key twice is harmless.
		c.absent.Add(key, struct{}{})
		return pgs.Missing, nil
	}

	g, err := pgs.ParseGenotype(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s at %s: %v", pgs.ErrGenotypeResolution, individual, rsid, err)
	}

	return g, nil
}

func (c *CachingResolver) chip(ctx context.Context, individual string) (string, error) {
	if c.Chips == nil {
		return individual, nil
	}

	if chip, ok := c.chips.Get(individual); ok {
		return chip, nil
	}

	chip, err := c.Chips.Chip(ctx, individual)
	if err != nil {
		return "", fmt.Errorf("%w: chip of %s: %v", pgs.ErrGenotypeResolution, individual, err)
	}
	c.chips.Add(individual, chip)

	return chip, nil
}
