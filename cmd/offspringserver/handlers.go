package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/carbocation/pgsinherit/analysis"
	"github.com/carbocation/pgsinherit/compileinfo"
	"github.com/carbocation/pgsinherit/modelstore"
	"github.com/carbocation/pgsinherit/pgs"
)

type modelSource interface {
	Model(ctx context.Context, id string, prevalence float64) (*pgs.Model, error)
}

type modelLister interface {
	List(ctx context.Context) ([]modelstore.Entry, error)
}

type handler struct {
	runner  *analysis.Runner
	models  modelstore.Store
	catalog modelSource
	lister  modelLister
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string                  `json:"status"`
		Build  compileinfo.CompileInfo `json:"build"`
	}{"ok", compileinfo.Get()})
}

// Analysis runs one analysis for the duration of the request. A client that
// disconnects cancels it.
func (h *handler) Analysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := analysis.Request{
		ModelID: q.Get("pgs_id"),
		ParentA: q.Get("genome_id_1"),
		ParentB: q.Get("genome_id_2"),
	}

	if req.ModelID == "" || req.ParentA == "" || req.ParentB == "" {
		HTTPError(w, http.StatusBadRequest, fmt.Errorf("pgs_id, genome_id_1 and genome_id_2 are required"))
		return
	}

	res, err := h.runner.Run(r.Context(), req)
	if err != nil {
		HTTPError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// RegisterModel fetches a score from the PGS Catalog, calibrates it to the
// given prevalence and stores it.
func (h *handler) RegisterModel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("pgs_id")
	if id == "" {
		HTTPError(w, http.StatusBadRequest, fmt.Errorf("pgs_id is required"))
		return
	}

	prevalence, err := strconv.ParseFloat(q.Get("prevalence"), 64)
	if err != nil {
		HTTPError(w, http.StatusBadRequest, fmt.Errorf("prevalence must be a number: %w", err))
		return
	}

	model, err := h.catalog.Model(r.Context(), id, prevalence)
	if err != nil {
		HTTPError(w, statusFor(err), err)
		return
	}

	if err := h.models.Put(r.Context(), model); err != nil {
		HTTPError(w, statusFor(err), err)
		return
	}

	log.Printf("Registered %s with %d markers\n", model.ID, len(model.Markers))

	writeJSON(w, http.StatusCreated, describe(model))
}

func (h *handler) Model(w http.ResponseWriter, r *http.Request) {
	model, err := h.models.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		HTTPError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, describe(model))
}

func (h *handler) ListModels(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		HTTPError(w, http.StatusNotImplemented, fmt.Errorf("this model store cannot list its models"))
		return
	}

	entries, err := h.lister.List(r.Context())
	if err != nil {
		HTTPError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

type modelDescription struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Publication    pgs.Publication `json:"publication"`
	Traits         []pgs.Trait     `json:"traits"`
	VariantsNumber int             `json:"variants_number"`
	Markers        int             `json:"markers"`
	Prevalence     float64         `json:"prevalence"`
	Intercept      float64         `json:"intercept"`
}

func describe(m *pgs.Model) modelDescription {
	return modelDescription{
		ID:             m.ID,
		Name:           m.Name,
		Publication:    m.Publication,
		Traits:         m.Traits,
		VariantsNumber: m.VariantsNumber,
		Markers:        len(m.Markers),
		Prevalence:     m.Prevalence,
		Intercept:      m.Intercept,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pgs.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, pgs.ErrInvalidPrevalence), errors.Is(err, pgs.ErrMalformedScoringFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pgs.ErrGenotypeResolution):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func HTTPError(w http.ResponseWriter, status int, err error) {
	log.Println(err)

	kind := pgs.Kind(err)
	if status < 500 && kind == "Internal" {
		kind = ""
	}

	writeJSON(w, status, struct {
		Kind  string `json:"kind,omitempty"`
		Error string `json:"error"`
	}{kind, err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println(err)
	}
}
