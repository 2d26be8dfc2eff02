// Package pgscatalog registers polygenic scores published in the PGS Catalog,
// https://www.pgscatalog.org .
package pgscatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/carbocation/pgsinherit"
	"github.com/carbocation/pgsinherit/pgs"
	"github.com/carbocation/pgsinherit/prsparser"
)

const DefaultBaseURL = "https://www.pgscatalog.org"

type Client struct {
	// BaseURL of the catalog REST API, without the /rest suffix.
	BaseURL string
	HTTP    *http.Client

	// SkipIndels drops multi-letter effect alleles from downloaded scores
	// instead of rejecting them.
	SkipIndels bool
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{BaseURL: baseURL, HTTP: http.DefaultClient}
}

// Score is the subset of the catalog's score record that we use.
type Score struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	FTPScoringFile string      `json:"ftp_scoring_file"`
	Publication    Publication `json:"publication"`
	TraitReported  string      `json:"trait_reported"`
	TraitEFO       []Trait     `json:"trait_efo"`
	VariantsNumber int         `json:"variants_number"`
	WeightType     string      `json:"weight_type"`
	GenomeBuild    string      `json:"variants_genomebuild"`
}

type Publication struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DOI             string `json:"doi"`
	Journal         string `json:"journal"`
	FirstAuthor     string `json:"firstauthor"`
	DatePublication string `json:"date_publication"`
}

// Citation formats the publication the way the catalog's scoring file headers
// do: "Author et al. Journal (year)".
func (p Publication) Citation() string {
	if p.FirstAuthor == "" {
		return p.Title
	}

	year := p.DatePublication
	if len(year) >= 4 {
		year = year[:4]
	}

	return fmt.Sprintf("%s et al. %s (%s)", p.FirstAuthor, p.Journal, year)
}

type Trait struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}

	return c.HTTP
}

// Score fetches the catalog's record for a score id such as PGS000001.
func (c *Client) Score(ctx context.Context, id string) (*Score, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/rest/score/" + url.PathEscape(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pfx.Err(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s is not in the PGS Catalog", pgs.ErrModelNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("PGS Catalog returned %s for %s", resp.Status, id)
	}

	score := &Score{}
	if err := json.NewDecoder(resp.Body).Decode(score); err != nil {
		return nil, pfx.Err(err)
	}

	// The catalog answers unknown ids with an empty object.
	if score.ID == "" {
		return nil, fmt.Errorf("%w: %s is not in the PGS Catalog", pgs.ErrModelNotFound, id)
	}

	return score, nil
}

// Model downloads the scoring file of score id, loads it calibrated to
// prevalence, and labels it with the catalog's metadata.
func (c *Client) Model(ctx context.Context, id string, prevalence float64) (*pgs.Model, error) {
	score, err := c.Score(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("Downloading %s scoring file (%d variants) from %s\n", score.ID, score.VariantsNumber, score.FTPScoringFile)

	f, err := c.download(ctx, score.FTPScoringFile)
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	rc, err := pgsinherit.MaybeDecompressReadCloserFromFile(f)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	loader := pgs.Loader{Layout: prsparser.Layouts[prsparser.DefaultLayout], SkipIndels: c.SkipIndels}
	model, err := loader.Load(rc, prevalence)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", score.ID, err)
	}

	score.Label(model)

	return model, nil
}

// Label overwrites model metadata with the catalog's.
func (s *Score) Label(model *pgs.Model) {
	model.ID = s.ID
	model.Name = s.Name
	model.Publication = pgs.Publication{
		Citation: s.Publication.Citation(),
		DOI:      s.Publication.DOI,
	}

	if len(s.TraitEFO) > 0 {
		model.Traits = make([]pgs.Trait, 0, len(s.TraitEFO))
		for _, t := range s.TraitEFO {
			model.Traits = append(model.Traits, pgs.Trait{ID: t.ID, Label: t.Label})
		}
	}

	if s.VariantsNumber > 0 {
		model.VariantsNumber = s.VariantsNumber
	}
}

// download saves the file at fileURL to a temporary file, rewound to its
// start. The caller removes it.
func (c *Client) download(ctx context.Context, fileURL string) (*os.File, error) {
	if fileURL == "" {
		return nil, fmt.Errorf("the catalog did not name a scoring file")
	}

	// ftp.ebi.ac.uk serves the same tree over https
	if strings.HasPrefix(fileURL, "ftp://") {
		fileURL = "https://" + strings.TrimPrefix(fileURL, "ftp://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, pfx.Err(err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: %s", fileURL, resp.Status)
	}

	f, err := os.CreateTemp("", "pgs-scoring-*")
	if err != nil {
		return nil, pfx.Err(err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, pfx.Err(err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, pfx.Err(err)
	}

	return f, nil
}
