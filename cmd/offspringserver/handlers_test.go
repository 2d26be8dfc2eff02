package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gopkg.in/guregu/null.v3"

	"github.com/carbocation/pgsinherit/analysis"
	"github.com/carbocation/pgsinherit/genotype"
	"github.com/carbocation/pgsinherit/modelstore"
	"github.com/carbocation/pgsinherit/pgs"
)

type fakeCatalog map[string]*pgs.Model

func (f fakeCatalog) Model(ctx context.Context, id string, prevalence float64) (*pgs.Model, error) {
	if prevalence <= 0 || prevalence >= 1 {
		return nil, fmt.Errorf("%w: got %v", pgs.ErrInvalidPrevalence, prevalence)
	}

	m, exists := f[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", pgs.ErrModelNotFound, id)
	}

	return m, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	model, err := pgs.NewModel("PGS000001", []pgs.Marker{
		{RSID: "rs1", EffectAllele: "A", Weight: 0.3, Frequency: null.FloatFrom(0.4)},
		{RSID: "rs2", EffectAllele: "C", Weight: -0.2, Frequency: null.FloatFrom(0.1)},
	}, -1)
	if err != nil {
		t.Fatal(err)
	}

	extra, err := pgs.NewModel("PGS000002", []pgs.Marker{{RSID: "rs9", EffectAllele: "T", Weight: 0.1}}, 0)
	if err != nil {
		t.Fatal(err)
	}

	models := modelstore.NewMemory(model)
	genomes := genotype.MapResolver{
		"mom": {"rs1": "AG", "rs2": "CC"},
		"dad": {"rs1": "AA", "rs2": "CT"},
	}

	h := &handler{
		runner: &analysis.Runner{
			Models:    models,
			Genotypes: genomes,
			Config:    analysis.Config{Trials: 2000, Buckets: 5, Workers: 2, ResolverWorkers: 2, Seed: []byte("http")},
		},
		models:  models,
		catalog: fakeCatalog{"PGS000002": extra},
	}

	srv := httptest.NewServer(router(h))
	t.Cleanup(srv.Close)

	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Got status %d", resp.StatusCode)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/analysis?pgs_id=PGS000001&genome_id_1=mom&genome_id_2=dad")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Got status %d", resp.StatusCode)
	}

	var res analysis.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.ModelID != "PGS000001" || len(res.PDF) != 5 || res.Trials != 2000 {
		t.Errorf("Got %+v", res)
	}
}

func TestAnalysisEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	for query, status := range map[string]int{
		"":                                  http.StatusBadRequest,
		"?pgs_id=PGS000001":                 http.StatusBadRequest,
		"?pgs_id=PGS000001&genome_id_1=mom": http.StatusBadRequest,
		"?pgs_id=PGS404&genome_id_1=mom&genome_id_2=dad":       http.StatusNotFound,
		"?pgs_id=PGS000001&genome_id_1=mom&genome_id_2=nobody": http.StatusBadGateway,
	} {
		resp, err := http.Get(srv.URL + "/api/analysis" + query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		if resp.StatusCode != status {
			t.Errorf("%q: got status %d, expected %d", query, resp.StatusCode, status)
		}
	}
}

func TestRegisterAndGetModel(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/models/PGS000002")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Got status %d before registration", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/analysis?pgs_id=PGS000002&prevalence=0.2", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Got status %d registering", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/models/PGS000002")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Got status %d after registration", resp.StatusCode)
	}

	var desc modelDescription
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		t.Fatal(err)
	}
	if desc.ID != "PGS000002" || desc.Markers != 1 {
		t.Errorf("Got %+v", desc)
	}
}

func TestRegisterModelErrors(t *testing.T) {
	srv := newTestServer(t)

	for query, status := range map[string]int{
		"?prevalence=0.1":                http.StatusBadRequest,
		"?pgs_id=PGS000002":              http.StatusBadRequest,
		"?pgs_id=PGS000002&prevalence=2": http.StatusUnprocessableEntity,
		"?pgs_id=PGS404&prevalence=0.1":  http.StatusNotFound,
	} {
		resp, err := http.Post(srv.URL+"/api/analysis"+query, "", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		if resp.StatusCode != status {
			t.Errorf("%q: got status %d, expected %d", query, resp.StatusCode, status)
		}
	}
}

func TestListModelsWithoutLister(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/models")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("Got status %d", resp.StatusCode)
	}
}
