package modelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	"github.com/carbocation/pgsinherit/pgs"
)

const modelSchema = `
CREATE TABLE IF NOT EXISTS models (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	citation TEXT NOT NULL,
	doi TEXT NOT NULL,
	variants_number INTEGER NOT NULL,
	prevalence REAL NOT NULL,
	intercept REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS traits (
	model_id TEXT NOT NULL REFERENCES models(id),
	ordinal INTEGER NOT NULL,
	trait_id TEXT NOT NULL,
	label TEXT NOT NULL,
	PRIMARY KEY (model_id, ordinal)
);
CREATE TABLE IF NOT EXISTS markers (
	model_id TEXT NOT NULL REFERENCES models(id),
	ordinal INTEGER NOT NULL,
	rsid TEXT NOT NULL,
	effect_allele TEXT NOT NULL,
	weight REAL NOT NULL,
	frequency REAL,
	PRIMARY KEY (model_id, ordinal)
);
`

// SQLite keeps models in the tables models, traits and markers. Marker
// ordinals preserve the model's marker order.
type SQLite struct {
	DB *sqlx.DB
}

func NewSQLite(db *sqlx.DB) (*SQLite, error) {
	if _, err := db.Exec(modelSchema); err != nil {
		return nil, pfx.Err(err)
	}

	return &SQLite{DB: db}, nil
}

type modelRow struct {
	ID             string  `db:"id"`
	Name           string  `db:"name"`
	Citation       string  `db:"citation"`
	DOI            string  `db:"doi"`
	VariantsNumber int     `db:"variants_number"`
	Prevalence     float64 `db:"prevalence"`
	Intercept      float64 `db:"intercept"`
}

func (s *SQLite) Get(ctx context.Context, id string) (*pgs.Model, error) {
	var mr modelRow
	err := s.DB.GetContext(ctx, &mr, "SELECT id, name, citation, doi, variants_number, prevalence, intercept FROM models WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", pgs.ErrModelNotFound, id)
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	markers := []pgs.Marker{}
	if err := s.DB.SelectContext(ctx, &markers, "SELECT rsid, effect_allele, weight, frequency FROM markers WHERE model_id=? ORDER BY ordinal", id); err != nil {
		return nil, pfx.Err(err)
	}

	model, err := pgs.NewModel(mr.ID, markers, mr.Intercept)
	if err != nil {
		return nil, err
	}
	model.Name = mr.Name
	model.Publication = pgs.Publication{Citation: mr.Citation, DOI: mr.DOI}
	model.VariantsNumber = mr.VariantsNumber
	model.Prevalence = mr.Prevalence

	traits := []pgs.Trait{}
	if err := s.DB.SelectContext(ctx, &traits, "SELECT trait_id, label FROM traits WHERE model_id=? ORDER BY ordinal", id); err != nil {
		return nil, pfx.Err(err)
	}
	if len(traits) > 0 {
		model.Traits = traits
	}

	return model, nil
}

// Put stores model, replacing any model already registered under its id.
func (s *SQLite) Put(ctx context.Context, model *pgs.Model) error {
	if model.ID == "" {
		return fmt.Errorf("model has no id")
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	for _, table := range []string{"markers", "traits"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE model_id=?", model.ID); err != nil {
			return pfx.Err(err)
		}
	}

	if _, err := tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO models (id, name, citation, doi, variants_number, prevalence, intercept)
		VALUES (:id, :name, :citation, :doi, :variants_number, :prevalence, :intercept)`, modelRow{
		ID:             model.ID,
		Name:           model.Name,
		Citation:       model.Publication.Citation,
		DOI:            model.Publication.DOI,
		VariantsNumber: model.VariantsNumber,
		Prevalence:     model.Prevalence,
		Intercept:      model.Intercept,
	}); err != nil {
		return pfx.Err(err)
	}

	for i, trait := range model.Traits {
		if _, err := tx.ExecContext(ctx, "INSERT INTO traits (model_id, ordinal, trait_id, label) VALUES (?, ?, ?, ?)", model.ID, i, trait.ID, trait.Label); err != nil {
			return pfx.Err(err)
		}
	}

	stmt, err := tx.PreparexContext(ctx, "INSERT INTO markers (model_id, ordinal, rsid, effect_allele, weight, frequency) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	for i, m := range model.Markers {
		if _, err := stmt.ExecContext(ctx, model.ID, i, m.RSID, m.EffectAllele, m.Weight, m.Frequency); err != nil {
			return pfx.Err(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Entry describes a stored model without its markers.
type Entry struct {
	ID             string  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	VariantsNumber int     `json:"variants_number" db:"variants_number"`
	Prevalence     float64 `json:"prevalence" db:"prevalence"`
}

// List describes every stored model.
func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	out := []Entry{}
	if err := s.DB.SelectContext(ctx, &out, "SELECT id, name, variants_number, prevalence FROM models ORDER BY id"); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}
