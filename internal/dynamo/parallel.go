package dynamo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs the same experiment over consecutive seeds. Controllers
// carry state, so every run gets a freshly built simulator.
type Ensemble struct {
	build     func() (*Simulator, error)
	numRuns   int
	seedStart int64
}

func NewEnsemble(build func() (*Simulator, error), numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, x0 State, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			s, err := e.build()
			if err != nil {
				return err
			}

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			res, err := s.Run(ctx, x0, cfgCopy)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
