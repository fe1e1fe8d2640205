// Package optim scores closed-loop runs over a grid of controller gains.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/experiment"
)

var (
	ErrEmptyGrid     = errors.New("empty search grid")
	ErrUnknownGain   = errors.New("unknown gain")
	ErrNoCandidates  = errors.New("no candidate completed")
	ErrUnknownMetric = errors.New("unknown metric")
)

// Candidate is one evaluated point of the grid.
type Candidate struct {
	Params map[string]float64
	Score  float64
}

// GridSearch evaluates every combination of the given gain values.
// Supported names are kp, ki, kd and sample_ms.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{
		paramNames: params,
		ranges:     ranges,
		workers:    runtime.GOMAXPROCS(0),
	}
}

// SetWorkers bounds the number of concurrent simulations.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Size returns the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base with every grid point applied and returns all candidates
// ordered by ascending metric value. Points whose configuration is invalid
// or whose run diverges are skipped.
func (g *GridSearch) Search(ctx context.Context, reg *experiment.Registry, base *config.Config, metricName string, log logr.Logger) ([]Candidate, error) {
	if len(g.paramNames) != len(g.ranges) || g.Size() == 0 {
		return nil, ErrEmptyGrid
	}
	for _, name := range g.paramNames {
		if err := apply(&config.Config{}, name, 0); err != nil {
			return nil, err
		}
	}

	var (
		mu      sync.Mutex
		results []Candidate
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for _, point := range g.points() {
		point := point
		eg.Go(func() error {
			cfg := *base
			for name, v := range point {
				if err := apply(&cfg, name, v); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				log.V(1).Info("skipping candidate", "params", point, "reason", err.Error())
				return nil
			}

			exp, err := experiment.Build(reg, &cfg, log)
			if err != nil {
				return err
			}
			res, err := exp.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			if len(res.Errors) > 0 {
				log.V(1).Info("candidate diverged", "params", point, "errors", len(res.Errors))
				return nil
			}

			score, ok := res.Metrics[metricName]
			if !ok {
				return fmt.Errorf("%s: %w", metricName, ErrUnknownMetric)
			}
			if math.IsNaN(score) || math.IsInf(score, 0) {
				return nil
			}

			mu.Lock()
			results = append(results, Candidate{Params: point, Score: score})
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoCandidates
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return lessParams(g.paramNames, results[i].Params, results[j].Params)
	})
	return results, nil
}

func (g *GridSearch) points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.collect(depth+1, next, out)
	}
}

func lessParams(names []string, a, b map[string]float64) bool {
	for _, n := range names {
		if a[n] != b[n] {
			return a[n] < b[n]
		}
	}
	return false
}

func apply(cfg *config.Config, name string, v float64) error {
	switch name {
	case "kp":
		cfg.PID.Kp = v
	case "ki":
		cfg.PID.Ki = v
	case "kd":
		cfg.PID.Kd = v
	case "sample_ms":
		cfg.PID.SampleMs = v
	default:
		return fmt.Errorf("%q: %w", name, ErrUnknownGain)
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
