// Package analysis runs an offspring analysis from start to finish: it loads
// a model, resolves both parents' genotypes, simulates their children and
// summarizes the result.
package analysis

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/carbocation/pgsinherit/config"
	"github.com/carbocation/pgsinherit/genotype"
	"github.com/carbocation/pgsinherit/inherit"
	"github.com/carbocation/pgsinherit/modelstore"
	"github.com/carbocation/pgsinherit/pdf"
	"github.com/carbocation/pgsinherit/pgs"
)

type Config struct {
	Trials          int
	Buckets         int
	Workers         int
	ResolverWorkers int
	Seed            []byte
	Verbose         bool

	// KeepProbabilities returns every simulated probability in
	// Result.Probabilities.
	KeepProbabilities bool

	// CheckSegregation tests the simulated children against Mendel's ratios
	// at every varying marker and returns the tests in Result.Segregation.
	CheckSegregation bool
}

// SegregationAlpha is the P value below which a segregation test is logged as
// a departure from Mendelian inheritance.
const SegregationAlpha = 1e-6

// ConfigFrom takes the analysis settings out of a binary's configuration.
func ConfigFrom(c config.Config) Config {
	return Config{
		Trials:          c.Trials,
		Buckets:         c.Buckets,
		Workers:         c.Workers,
		ResolverWorkers: c.ResolverWorkers,
		Seed:            inherit.SeedFromInt(c.Seed),
	}
}

type Request struct {
	ModelID string
	ParentA string
	ParentB string
}

type Result struct {
	ID             string          `json:"id"`
	ModelID        string          `json:"pgs_id"`
	Name           string          `json:"name"`
	Publication    pgs.Publication `json:"publication"`
	Traits         []pgs.Trait     `json:"traits"`
	VariantsNumber int             `json:"variants_number"`

	ParentA            string  `json:"genome_id_1"`
	ParentB            string  `json:"genome_id_2"`
	ParentAProbability float64 `json:"parent_a_probability"`
	ParentBProbability float64 `json:"parent_b_probability"`

	Trials  int          `json:"trials"`
	PDF     []pdf.Bucket `json:"pdf"`
	Summary pdf.Summary  `json:"summary"`

	Probabilities []float64             `json:"-"`
	Segregation   []inherit.Segregation `json:"-"`
}

// Runner is safe for concurrent use; each Run owns its parents and samples.
type Runner struct {
	Models    modelstore.Store
	Genotypes genotype.Resolver
	Config    Config

	// Progress, if set, is called as each stage is entered.
	Progress func(Stage)
}

// Run performs one analysis. It returns either a complete Result or an
// *Error, never both. Canceling ctx abandons the run.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	stage := Init
	r.enter(stage)

	fail := func(err error) (*Result, error) {
		r.enter(Failed)
		return nil, &Error{Stage: stage, Err: err}
	}

	model, err := r.Models.Get(ctx, req.ModelID)
	if err != nil {
		return fail(err)
	}
	stage = ModelLoaded
	r.enter(stage)

	log.Printf("Resolving %d markers of %s for %s and %s\n", len(model.Markers), model.ID, req.ParentA, req.ParentB)
	parentA, parentB, err := r.resolveParents(ctx, model, req.ParentA, req.ParentB)
	if err != nil {
		return fail(err)
	}
	stage = ParentsResolved
	r.enter(stage)

	trials := r.Config.Trials
	if trials <= 0 {
		trials = inherit.DefaultTrials
	}

	log.Printf("Running Monte Carlo simulation with %d trials\n", trials)
	sim := inherit.Simulator{
		Trials:  trials,
		Workers: r.Config.Workers,
		Seed:    r.Config.Seed,
		Verbose: r.Config.Verbose,
	}
	probabilities, err := sim.Simulate(ctx, parentA, parentB, model)
	if err != nil {
		return fail(err)
	}

	var segregation []inherit.Segregation
	if r.Config.CheckSegregation {
		segregation, err = sim.Segregation(ctx, parentA, parentB, model)
		if err != nil {
			return fail(err)
		}

		departures := 0
		for _, seg := range segregation {
			if seg.P < SegregationAlpha || (seg.TransmissionP.Valid && seg.TransmissionP.Float64 < SegregationAlpha) {
				log.Printf("%s departs from Mendelian segregation: observed %v, expected proportions %v (P=%g)\n", seg.RSID, seg.Observed, seg.Expected, seg.P)
				departures++
			}
		}
		log.Printf("Segregation checked at %d markers, %d departures\n", len(segregation), departures)
	}
	stage = Simulated
	r.enter(stage)

	buckets := r.Config.Buckets
	if buckets <= 0 {
		buckets = pdf.DefaultBuckets
	}

	density, err := pdf.Build(probabilities, buckets)
	if err != nil {
		return fail(err)
	}
	summary := pdf.Summarize(probabilities)
	log.Printf("Offspring probabilities range from %.4f to %.4f\n", summary.Min, summary.Max)

	pa, pb := inherit.ParentProbabilities(model, parentA, parentB)
	for _, p := range []float64{pa, pb} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return fail(fmt.Errorf("%w: parent probability %v", pgs.ErrNumericInstability, p))
		}
	}
	stage = Scored
	r.enter(stage)

	result := &Result{
		ID:                 uuid.NewString(),
		ModelID:            model.ID,
		Name:               model.Name,
		Publication:        model.Publication,
		Traits:             model.Traits,
		VariantsNumber:     model.VariantsNumber,
		ParentA:            req.ParentA,
		ParentB:            req.ParentB,
		ParentAProbability: pa,
		ParentBProbability: pb,
		Trials:             trials,
		PDF:                density,
		Summary:            summary,
	}
	if r.Config.KeepProbabilities {
		result.Probabilities = probabilities
	}
	result.Segregation = segregation
	r.enter(Done)

	return result, nil
}

func (r *Runner) enter(s Stage) {
	if r.Progress != nil {
		r.Progress(s)
	}
}

type lookup struct {
	parent int
	marker int
}

// resolveParents fetches both parents' genotypes at every model marker on a
// bounded pool of workers. The first failure stops the remaining lookups.
func (r *Runner) resolveParents(ctx context.Context, model *pgs.Model, a, b string) (inherit.Parent, inherit.Parent, error) {
	ids := [2]string{a, b}
	calls := [2][]pgs.Genotype{
		make([]pgs.Genotype, len(model.Markers)),
		make([]pgs.Genotype, len(model.Markers)),
	}

	workers := r.Config.ResolverWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan lookup)
	errs := make(chan error, 1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}

				g, err := r.Genotypes.Fetch(ctx, ids[job.parent], model.Markers[job.marker].RSID)
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					cancel()
					continue
				}

				if g == "" {
					g = pgs.Missing
				}

				// Each (parent, marker) slot is written by exactly one worker.
				calls[job.parent][job.marker] = g
			}
		}()
	}

Loop:
	for i := range model.Markers {
		for p := range ids {
			select {
			case jobs <- lookup{parent: p, marker: i}:
			case <-ctx.Done():
				break Loop
			}
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errs:
		return inherit.Parent{}, inherit.Parent{}, err
	default:
	}

	if err := ctx.Err(); err != nil {
		return inherit.Parent{}, inherit.Parent{}, err
	}

	parents := [2]inherit.Parent{}
	for p := range parents {
		parents[p] = inherit.Parent{ID: ids[p], Genotypes: make(map[string]pgs.Genotype, len(model.Markers))}
		for i, marker := range model.Markers {
			parents[p].Genotypes[marker.RSID] = calls[p][i]
		}
	}

	return parents[0], parents[1], nil
}
