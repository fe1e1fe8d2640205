package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

type testPlant struct{}

func (p *testPlant) Derive(x State, u Control, time float64) State {
	return State{-x[0] + u[0]}
}

func (p *testPlant) StateDim() int            { return 1 }
func (p *testPlant) ControlDim() int          { return 1 }
func (p *testPlant) Measure(x State) float64 { return x[0] }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn System, x State, u Control, time float64, dt float64) State {
	dx := dyn.Derive(x, u, time)
	return State{x[0] + dt*dx[0]}
}

type testController struct {
	u     float64
	calls int
	last  float64
}

func (c *testController) Compute(y float64, time float64) Control {
	c.calls++
	c.last = y
	return Control{c.u}
}

func (c *testController) Trace() Trace {
	return Trace{Setpoint: 1, Output: c.u}
}

func TestSimulatorRun(t *testing.T) {
	ctrl := &testController{}
	sim := New(&testPlant{}, &testIntegrator{}, ctrl)

	cfg := Config{Dt: 0.1, Duration: 1.0}
	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Samples) != 10 {
		t.Errorf("expected 10 samples, got %d", len(result.Samples))
	}
	if ctrl.calls != 10 {
		t.Errorf("expected 10 controller calls, got %d", ctrl.calls)
	}

	expected := math.Exp(-1.0)
	if math.Abs(result.Final[0]-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, result.Final[0])
	}

	if result.Samples[0].Trace.Setpoint != 1 {
		t.Errorf("expected traced setpoint 1, got %f", result.Samples[0].Trace.Setpoint)
	}

	times := result.Times()
	if math.Abs(times[9]-0.9) > 1e-9 {
		t.Errorf("expected last sample at t=0.9, got %f", times[9])
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testPlant{}, &testIntegrator{}, &testController{})

	tests := []struct {
		name string
		x0   State
		cfg  Config
	}{
		{"zero dt", State{1}, Config{Dt: 0, Duration: 1.0}},
		{"negative dt", State{1}, Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", State{1}, Config{Dt: 0.1, Duration: 0}},
		{"negative duration", State{1}, Config{Dt: 0.1, Duration: -1.0}},
		{"negative noise", State{1}, Config{Dt: 0.1, Duration: 1.0, Noise: -1}},
		{"wrong state dim", State{1, 2}, Config{Dt: 0.1, Duration: 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.x0, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorNoiseIsSeeded(t *testing.T) {
	run := func(seed int64) float64 {
		ctrl := &testController{}
		sim := New(&testPlant{}, &testIntegrator{}, ctrl)
		if _, err := sim.Run(context.Background(), State{0}, Config{Dt: 0.1, Duration: 0.5, Seed: seed, Noise: 0.5}); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return ctrl.last
	}

	if run(7) != run(7) {
		t.Error("same seed should give the same measurements")
	}
	if run(7) == run(8) {
		t.Error("different seeds should give different measurements")
	}
}

type divergingPlant struct{ testPlant }

func (p *divergingPlant) Derive(x State, u Control, time float64) State {
	return State{math.Inf(1)}
}

func TestSimulatorStopsOnInvalidState(t *testing.T) {
	sim := New(&divergingPlant{}, &testIntegrator{}, &testController{})
	result, err := sim.Run(context.Background(), State{0}, Config{Dt: 0.1, Duration: 1.0, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	if !errors.Is(result.Errors[0], ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", result.Errors[0])
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected 0 steps taken, got %d", result.StepsTaken)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(&testPlant{}, &testIntegrator{}, &testController{})
	_, err := sim.Run(ctx, State{0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(s Sample) {
	m.count++
	m.sum += s.Measured
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testPlant{}, &testIntegrator{}, &testController{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestEnsembleRun(t *testing.T) {
	build := func() (*Simulator, error) {
		return New(&testPlant{}, &testIntegrator{}, &testController{u: 1}), nil
	}

	results, err := NewEnsemble(build, 4, 100).Run(context.Background(), State{0}, Config{Dt: 0.1, Duration: 1.0, Noise: 0.1})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Samples[1].Measured == results[1].Samples[1].Measured {
		t.Error("runs should use different seeds")
	}
}

func TestEnsembleBuildError(t *testing.T) {
	boom := errors.New("boom")
	build := func() (*Simulator, error) { return nil, boom }

	_, err := NewEnsemble(build, 3, 0).Run(context.Background(), State{0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, boom) {
		t.Errorf("expected build error, got %v", err)
	}
}
