package inherit

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"

	"github.com/hhcho/frand"
	"github.com/minio/blake2b-simd"

	"github.com/carbocation/pgsinherit/pgs"
)

const (
	DefaultTrials = 20000

	// ChunkSize trials share one random stream. Results do not depend on how
	// chunks are spread across workers.
	ChunkSize = 1000

	rngBufferSize = 1024
	chachaRounds  = 20
)

// Simulator draws children of two parents and scores each one.
type Simulator struct {
	Trials  int
	Workers int

	// Seed makes runs reproducible. If empty, a random seed is used.
	Seed []byte

	// Verbose logs progress as chunks complete.
	Verbose bool
}

// SeedFromInt turns a numeric seed into Simulator.Seed. Zero means "random"
// and gives a nil seed.
func SeedFromInt(seed int64) []byte {
	if seed == 0 {
		return nil
	}

	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(seed))

	return out
}

// Simulate returns the trait probability of each of s.Trials simulated
// children of a and b. Canceling ctx stops the run between chunks, and no
// partial output is returned.
func (s Simulator) Simulate(ctx context.Context, a, b Parent, model *pgs.Model) ([]float64, error) {
	if model == nil {
		return nil, fmt.Errorf("no model to simulate")
	}
	if s.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", s.Trials)
	}

	cross, err := NewCross(model, a, b)
	if err != nil {
		return nil, err
	}

	seed, err := s.seed()
	if err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	nChunks := (s.Trials + ChunkSize - 1) / ChunkSize
	if workers > nChunks {
		workers = nChunks
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]float64, s.Trials)
	jobs := make(chan int)
	errs := make(chan error, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			child := cross.NewChild()
			random := make([]byte, cross.RandomBytes())

			for chunk := range jobs {
				if ctx.Err() != nil {
					continue
				}

				start := chunk * ChunkSize
				end := start + ChunkSize
				if end > s.Trials {
					end = s.Trials
				}

				if err := runChunk(cross, model, chunkRNG(seed, chunk), random, child, out[start:end]); err != nil {
					select {
					case errs <- err:
					default:
					}
					cancel()
					continue
				}

				if s.Verbose {
					mu.Lock()
					done += end - start
					log.Printf("Simulation %d/%d\n", done, s.Trials)
					mu.Unlock()
				}
			}
		}()
	}

Loop:
	for chunk := 0; chunk < nChunks; chunk++ {
		select {
		case jobs <- chunk:
		case <-ctx.Done():
			break Loop
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errs:
		return nil, err
	default:
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// seed is s.Seed, or 32 fresh random bytes when none was set.
func (s Simulator) seed() ([]byte, error) {
	if len(s.Seed) > 0 {
		return s.Seed, nil
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}

	return seed, nil
}

func runChunk(cross *Cross, model *pgs.Model, rng *frand.RNG, random []byte, child []pgs.Genotype, out []float64) error {
	for t := range out {
		rng.Read(random)
		cross.Draw(random, child)

		p := model.ProbabilityAligned(child)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: trial produced probability %v", pgs.ErrNumericInstability, p)
		}
		out[t] = p
	}

	return nil
}

// chunkRNG derives the random stream of one chunk from the run's seed.
func chunkRNG(seed []byte, chunk int) *frand.RNG {
	material := make([]byte, len(seed)+8)
	copy(material, seed)
	binary.LittleEndian.PutUint64(material[len(seed):], uint64(chunk))

	key := blake2b.Sum256(material)

	return frand.NewCustom(key[:], rngBufferSize, chachaRounds)
}

// ParentProbabilities scores both parents directly.
func ParentProbabilities(model *pgs.Model, a, b Parent) (float64, float64) {
	return model.Probability(a.Genotypes), model.Probability(b.Genotypes)
}
