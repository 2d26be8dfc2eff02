package genotype

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/pgs"
)

const rawExport = `# This data file generated by 23andMe
# rsid	chromosome	position	genotype
rs4477212	1	82154	AA
rs3094315	1	752566	AG
rs3131972	1	752721	--
`

func openTestStore(t *testing.T) *SQLiteStore {
	db, err := pgsinherit.OpenSQLite(filepath.Join(t.TempDir(), "genomes.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatal(err)
	}

	return store
}

func TestSQLiteStoreImport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	n, err := store.ImportRaw(ctx, "mom", "v5", pgsinherit.NewRawGenotypeReader(strings.NewReader(rawExport), '\t'))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Imported %d calls, expected 3", n)
	}

	chip, err := store.Chip(ctx, "mom")
	if err != nil || chip != "v5" {
		t.Errorf("Got chip %q %v", chip, err)
	}

	raw, found, err := store.Lookup(ctx, "mom", "rs3094315")
	if err != nil || !found || raw != "AG" {
		t.Errorf("Got %q %v %v", raw, found, err)
	}

	if _, found, err := store.Lookup(ctx, "mom", "rs404"); err != nil || found {
		t.Errorf("Absent marker: got found=%v %v", found, err)
	}

	if _, err := store.Chip(ctx, "dad"); err == nil {
		t.Error("Expected an error for a genome that was never imported")
	}

	// Re-importing replaces the calls
	n, err = store.ImportRaw(ctx, "mom", "v4", pgsinherit.NewRawGenotypeReader(strings.NewReader("rs1\t1\t10\tCC\n"), '\t'))
	if err != nil {
		t.Fatal(err)
	}
	if _, found, _ := store.Lookup(ctx, "mom", "rs3094315"); found || n != 1 {
		t.Error("Re-import did not replace the earlier calls")
	}

	genomes, err := store.Genomes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(genomes) != 1 || genomes[0].Chip != "v4" {
		t.Errorf("Got genomes %+v", genomes)
	}
}

func TestSQLiteStoreBadImportRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bad := "rs1\t1\t10\tAA\nrs2\t1\tnotaposition\tAG\n"
	if _, err := store.ImportRaw(ctx, "kid", "v5", pgsinherit.NewRawGenotypeReader(strings.NewReader(bad), '\t')); err == nil {
		t.Fatal("Expected an error")
	}

	if _, err := store.Chip(ctx, "kid"); err == nil {
		t.Error("A failed import left its genome behind")
	}
}

func TestSQLiteStoreNormalizesCalls(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	export := "rsX\tX\t100\tA\nrsY\tY\t200\tg\nrsMT\tMT\t300\t0\n"
	if _, err := store.ImportRaw(ctx, "dad", "v5", pgsinherit.NewRawGenotypeReader(strings.NewReader(export), '\t')); err != nil {
		t.Fatal(err)
	}

	for rsid, expected := range map[string]string{"rsX": "AA", "rsY": "GG", "rsMT": string(pgs.Missing)} {
		raw, found, err := store.Lookup(ctx, "dad", rsid)
		if err != nil || !found || raw != expected {
			t.Errorf("%s: got %q %v %v, expected %q", rsid, raw, found, err, expected)
		}
	}

	bad := "rs1\t1\t10\tAA\nrs2\t1\t20\tAGT\n"
	if _, err := store.ImportRaw(ctx, "kid", "v5", pgsinherit.NewRawGenotypeReader(strings.NewReader(bad), '\t')); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected the bad call on line 2 to fail the import, got %v", err)
	}
}

func TestSQLiteStoreBehindCachingResolver(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.ImportRaw(ctx, "mom", "v5", pgsinherit.NewRawGenotypeReader(strings.NewReader(rawExport), '\t')); err != nil {
		t.Fatal(err)
	}

	c, err := NewCachingResolver(store, store, 10)
	if err != nil {
		t.Fatal(err)
	}

	for rsid, expected := range map[string]pgs.Genotype{
		"rs4477212": "AA",
		"rs3131972": pgs.Missing,
		"rs404":     pgs.Missing,
	} {
		g, err := c.Fetch(ctx, "mom", rsid)
		if err != nil {
			t.Fatal(err)
		}
		if g != expected {
			t.Errorf("%s: got %q, expected %q", rsid, g, expected)
		}
	}
}
