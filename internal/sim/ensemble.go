package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/config"
	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/san-kum/quadfield/internal/quad"
)

// Ensemble runs the same scenario several times with perturbed initial
// positions. All runs share the immutable voxel grid; each run gets its own
// cascade so controller state never crosses goroutines.
type Ensemble struct {
	cfg     *config.Config
	cloud   []r3.Vec
	numRuns int
	jitter  float64 // stddev of the initial-position perturbation, meters
}

func NewEnsemble(cfg *config.Config, cloud []r3.Vec, numRuns int, jitter float64) (*Ensemble, error) {
	if numRuns < 1 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run, got %d",
			dynamo.ErrInvalidConfig, numRuns)
	}
	if jitter < 0 {
		return nil, fmt.Errorf("%w: jitter must be non-negative, got %f",
			dynamo.ErrInvalidConfig, jitter)
	}
	return &Ensemble{cfg: cfg, cloud: cloud, numRuns: numRuns, jitter: jitter}, nil
}

// Run executes every member and returns their results in order. A member
// that diverges records its error but does not abort the others.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, []error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, x0, runCfg, err := FromConfig(e.cfg, e.cloud)
			if err != nil {
				errs[idx] = err
				return
			}

			runCfg.Seed = e.cfg.Seed + int64(idx)
			rng := rand.New(rand.NewSource(runCfg.Seed))
			veh := quad.Decode(x0)
			veh.Pos = r3.Add(veh.Pos, r3.Vec{
				X: rng.NormFloat64() * e.jitter,
				Y: rng.NormFloat64() * e.jitter,
				Z: rng.NormFloat64() * e.jitter,
			})

			results[idx], errs[idx] = s.Run(ctx, veh.Encode(), runCfg)
		}(i)
	}
	wg.Wait()

	return results, errs
}
