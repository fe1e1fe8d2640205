package dynamo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

type Simulator struct {
	plant      Plant
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(plant Plant, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Samples: make([]Sample, 0, steps),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	x := x0.Clone()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		y := s.plant.Measure(x)
		if cfg.Noise > 0 {
			y += cfg.Noise * rng.NormFloat64()
		}

		u := s.controller.Compute(y, t)

		sample := Sample{Time: t, State: x.Clone(), Measured: y, Control: u}
		if tr, ok := s.controller.(Traced); ok {
			sample.Trace = tr.Trace()
		}

		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnStep(sample)
		}
		result.Samples = append(result.Samples, sample)

		newX := s.integrator.Step(s.plant, x, u, t, cfg.Dt)
		if cfg.ValidateState && !newX.IsValid() {
			result.Errors = append(result.Errors, &SimError{Step: i, Time: t, Wrapped: ErrInvalidState})
			break
		}

		x = newX
		result.StepsTaken++
	}

	result.Final = x
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Noise < 0 {
		return fmt.Errorf("noise must not be negative: %w", ErrParameterBounds)
	}
	if len(x0) != s.plant.StateDim() {
		return fmt.Errorf("initial state has %d values, plant wants %d: %w", len(x0), s.plant.StateDim(), ErrDimensionMismatch)
	}
	return nil
}
