package modelstore

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"gopkg.in/guregu/null.v3"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/pgs"
)

func testModel(t *testing.T) *pgs.Model {
	m, err := pgs.NewModel("PGS000001", []pgs.Marker{
		{RSID: "rs1", EffectAllele: "A", Weight: 0.1, Frequency: null.FloatFrom(0.3)},
		{RSID: "rs2", EffectAllele: "G", Weight: -0.7},
		{RSID: "rs3", EffectAllele: "T", Weight: 0.7, Frequency: null.FloatFrom(0)},
	}, -2.5)
	if err != nil {
		t.Fatal(err)
	}
	m.Name = "PRS77_BC"
	m.Prevalence = 0.12
	m.Publication = pgs.Publication{Citation: "Mavaddat N et al. (2015)", DOI: "10.1093/jnci/djv036"}
	m.Traits = []pgs.Trait{{ID: "EFO_0000305", Label: "Breast Carcinoma"}}

	return m
}

func openSQLite(t *testing.T) *SQLite {
	db, err := pgsinherit.OpenSQLite(filepath.Join(t.TempDir(), "models.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLite(db)
	if err != nil {
		t.Fatal(err)
	}

	return s
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]Store{
		"memory": NewMemory(),
		"sqlite": openSQLite(t),
	} {
		if _, err := store.Get(ctx, "PGS000001"); !errors.Is(err, pgs.ErrModelNotFound) {
			t.Errorf("%s: got %v before Put, expected not found", name, err)
		}

		want := testModel(t)
		if err := store.Put(ctx, want); err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		got, err := store.Get(ctx, "PGS000001")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		if got.Name != want.Name || got.Prevalence != want.Prevalence || got.Intercept != want.Intercept || got.VariantsNumber != 3 {
			t.Errorf("%s: got %+v", name, got)
		}
		if got.Publication != want.Publication {
			t.Errorf("%s: got publication %+v", name, got.Publication)
		}
		if len(got.Traits) != 1 || got.Traits[0] != want.Traits[0] {
			t.Errorf("%s: got traits %+v", name, got.Traits)
		}
		if len(got.Markers) != len(want.Markers) {
			t.Fatalf("%s: got %d markers", name, len(got.Markers))
		}
		for i := range want.Markers {
			if got.Markers[i] != want.Markers[i] {
				t.Errorf("%s: marker %d: got %+v, expected %+v", name, i, got.Markers[i], want.Markers[i])
			}
		}

		genotypes := map[string]pgs.Genotype{"rs1": pgs.Missing, "rs2": "GG", "rs3": "AT"}
		if a, b := want.Probability(genotypes), got.Probability(genotypes); math.Abs(a-b) > 1e-15 {
			t.Errorf("%s: stored model scores %v, original %v", name, b, a)
		}
	}
}

func TestSQLiteReplaceAndList(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	m := testModel(t)
	if err := s.Put(ctx, m); err != nil {
		t.Fatal(err)
	}

	shorter, err := pgs.NewModel(m.ID, m.Markers[:1], 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, shorter); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Markers) != 1 || got.Intercept != 0.5 || got.Traits != nil {
		t.Errorf("Replacement was not clean: %+v", got)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != m.ID {
		t.Errorf("Got entries %+v", entries)
	}
}

type countingStore struct {
	Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, id string) (*pgs.Model, error) {
	c.gets++
	return c.Store.Get(ctx, id)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: NewMemory(testModel(t))}

	c, err := NewCache(backing, 4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, "PGS000001"); err != nil {
			t.Fatal(err)
		}
	}
	if backing.gets != 1 {
		t.Errorf("Backing store was read %d times, expected 1", backing.gets)
	}

	if _, err := c.Get(ctx, "PGS404"); !errors.Is(err, pgs.ErrModelNotFound) {
		t.Errorf("Got %v", err)
	}

	other := testModel(t)
	other.ID = "PGS000002"
	if err := c.Put(ctx, other); err != nil {
		t.Fatal(err)
	}
	if got, err := c.Get(ctx, "PGS000002"); err != nil || got != other {
		t.Errorf("Put did not populate the cache: %v", err)
	}
}
