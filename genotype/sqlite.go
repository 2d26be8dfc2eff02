package genotype

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/pgs"
)

const genotypeSchema = `
CREATE TABLE IF NOT EXISTS genomes (
	id TEXT PRIMARY KEY,
	chip TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snps (
	genome_id TEXT NOT NULL REFERENCES genomes(id),
	rsid TEXT NOT NULL,
	chromosome TEXT NOT NULL,
	position INTEGER NOT NULL,
	genotype TEXT NOT NULL,
	PRIMARY KEY (genome_id, rsid)
);
`

const upsertGenome = "INSERT INTO genomes (id, chip) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET chip=excluded.chip"

// SQLiteStore keeps imported raw genotype files. It is a Source and a
// ChipLookup.
type SQLiteStore struct {
	DB *sqlx.DB
}

// NewSQLiteStore creates the genotype tables in db if they do not yet exist.
func NewSQLiteStore(db *sqlx.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(genotypeSchema); err != nil {
		return nil, pfx.Err(err)
	}

	return &SQLiteStore{DB: db}, nil
}

type Genome struct {
	ID   string `db:"id"`
	Chip string `db:"chip"`
}

// AddGenome registers a genome and the chip it was typed on. Registering an
// existing genome updates its chip.
func (s *SQLiteStore) AddGenome(ctx context.Context, id, chip string) error {
	if _, err := s.DB.ExecContext(ctx, upsertGenome, id, chip); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// ImportRaw registers genomeID and stores every call read from r, in one
// transaction. Calls already stored for the genome are replaced, and each call
// is stored in its pgs.ParseGenotype form, so a call that cannot be parsed
// fails the import. It returns the number of calls stored.
func (s *SQLiteStore) ImportRaw(ctx context.Context, genomeID, chip string, r *pgsinherit.RawGenotypeReader) (int, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, pfx.Err(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertGenome, genomeID, chip); err != nil {
		return 0, pfx.Err(err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM snps WHERE genome_id=?", genomeID); err != nil {
		return 0, pfx.Err(err)
	}

	stmt, err := tx.PreparexContext(ctx, "INSERT OR REPLACE INTO snps (genome_id, rsid, chromosome, position, genotype) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, pfx.Err(err)
	}
	defer stmt.Close()

	n := 0
	for row := r.Read(); row != nil; row = r.Read() {
		g, err := pgs.ParseGenotype(row.Genotype)
		if err != nil {
			return n, fmt.Errorf("line %d: %s: %w", r.Line(), row.RSID, err)
		}

		if _, err := stmt.ExecContext(ctx, genomeID, row.RSID, row.Chromosome, row.Position, string(g)); err != nil {
			return n, pfx.Err(err)
		}
		n++

		if n%100000 == 0 {
			log.Printf("Imported %d calls for %s\n", n, genomeID)
		}
	}
	if err := r.Err(); err != nil {
		return n, pfx.Err(err)
	}

	if err := tx.Commit(); err != nil {
		return n, pfx.Err(err)
	}

	return n, nil
}

func (s *SQLiteStore) Lookup(ctx context.Context, individual, rsid string) (string, bool, error) {
	var raw string
	err := s.DB.GetContext(ctx, &raw, "SELECT genotype FROM snps WHERE genome_id=? AND rsid=? LIMIT 1", individual, rsid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	} else if err != nil {
		return "", false, pfx.Err(err)
	}

	return raw, true, nil
}

func (s *SQLiteStore) Chip(ctx context.Context, individual string) (string, error) {
	var g Genome
	err := s.DB.GetContext(ctx, &g, "SELECT id, chip FROM genomes WHERE id=? LIMIT 1", individual)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("genome %s has not been imported", individual)
	} else if err != nil {
		return "", pfx.Err(err)
	}

	return g.Chip, nil
}

// Genomes lists every imported genome.
func (s *SQLiteStore) Genomes(ctx context.Context) ([]Genome, error) {
	out := []Genome{}
	if err := s.DB.SelectContext(ctx, &out, "SELECT id, chip FROM genomes ORDER BY id"); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}
