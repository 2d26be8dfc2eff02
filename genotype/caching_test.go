package genotype

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/carbocation/pgsinherit/pgs"
)

type countingSource struct {
	MapResolver
	chips   map[string]string
	lookups int64
	fail    bool
}

func (c *countingSource) Lookup(ctx context.Context, individual, rsid string) (string, bool, error) {
	atomic.AddInt64(&c.lookups, 1)
	if c.fail {
		return "", false, errors.New("disk on fire")
	}

	return c.MapResolver.Lookup(ctx, individual, rsid)
}

func (c *countingSource) Chip(ctx context.Context, individual string) (string, error) {
	return c.chips[individual], nil
}

func newCountingSource() *countingSource {
	return &countingSource{
		MapResolver: MapResolver{
			"mom": {"rs1": "AG", "rs2": "--"},
			"dad": {"rs1": "gg"},
		},
		chips: map[string]string{"mom": "v5", "dad": "v5"},
	}
}

func TestCachingResolverAbsentMarker(t *testing.T) {
	src := newCountingSource()
	c, err := NewCachingResolver(src, src, 100)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		for _, individual := range []string{"mom", "dad"} {
			g, err := c.Fetch(ctx, individual, "rs404")
			if err != nil {
				t.Fatal(err)
			}
			if g != pgs.Missing {
				t.Errorf("Got %q, expected missing", g)
			}
		}
	}

	if src.lookups != 1 {
		t.Errorf("Source was queried %d times for an absent marker, expected 1", src.lookups)
	}
}

func TestCachingResolverCalls(t *testing.T) {
	src := newCountingSource()
	c, err := NewCachingResolver(src, src, 100)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, v := range []struct {
		Individual string
		RSID       string
		Expected   pgs.Genotype
	}{
		{"mom", "rs1", "AG"},
		{"mom", "rs2", pgs.Missing},
		{"dad", "rs1", "GG"},
		{"dad", "rs2", pgs.Missing},
	} {
		g, err := c.Fetch(ctx, v.Individual, v.RSID)
		if err != nil {
			t.Fatal(err)
		}
		if g != v.Expected {
			t.Errorf("%s %s: got %q, expected %q", v.Individual, v.RSID, g, v.Expected)
		}
	}

	// Called markers are not cached as absent
	before := src.lookups
	if _, err := c.Fetch(ctx, "mom", "rs1"); err != nil {
		t.Fatal(err)
	}
	if src.lookups != before+1 {
		t.Error("A present marker was served from the absent cache")
	}
}

func TestCachingResolverConcurrent(t *testing.T) {
	src := newCountingSource()
	c, err := NewCachingResolver(src, src, 100)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g, err := c.Fetch(context.Background(), "dad", "rs1"); err != nil || g != "GG" {
				t.Errorf("Got %q %v", g, err)
			}
		}()
	}
	wg.Wait()
}

func TestCachingResolverError(t *testing.T) {
	src := newCountingSource()
	src.fail = true
	c, err := NewCachingResolver(src, nil, 100)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Fetch(context.Background(), "mom", "rs1")
	if !errors.Is(err, pgs.ErrGenotypeResolution) {
		t.Errorf("Got %v, expected a resolution failure", err)
	}
}

func TestCachingResolverCanceled(t *testing.T) {
	src := newCountingSource()
	c, err := NewCachingResolver(src, src, 100)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Fetch(ctx, "mom", "rs1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Got %v, expected context.Canceled", err)
	}
	if src.lookups != 0 {
		t.Error("Source was queried after cancellation")
	}
}

func TestMapResolver(t *testing.T) {
	m := MapResolver{"kid": {"rs1": "ct", "rs2": "00", "rs3": "XYZ"}}
	ctx := context.Background()

	if g, err := m.Fetch(ctx, "kid", "rs1"); err != nil || g != "CT" {
		t.Errorf("Got %q %v", g, err)
	}
	if g, err := m.Fetch(ctx, "kid", "rs2"); err != nil || g != pgs.Missing {
		t.Errorf("Got %q %v", g, err)
	}
	if g, err := m.Fetch(ctx, "kid", "rs9"); err != nil || g != pgs.Missing {
		t.Errorf("Got %q %v", g, err)
	}
	if _, err := m.Fetch(ctx, "kid", "rs3"); !errors.Is(err, pgs.ErrGenotypeResolution) {
		t.Errorf("Got %v for a malformed call", err)
	}
	if _, err := m.Fetch(ctx, "stranger", "rs1"); !errors.Is(err, pgs.ErrGenotypeResolution) {
		t.Errorf("Got %v for an unknown individual", err)
	}
}
