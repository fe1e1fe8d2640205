package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Plant is a System whose output can be sampled by a controller.
type Plant interface {
	System
	Measure(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Controller computes the plant input from the measured output.
type Controller interface {
	Compute(measured float64, t float64) Control
}

// Trace is the controller state recorded with each sample.
type Trace struct {
	Setpoint float64
	Output   float64
	P, I, D  float64
}

// Traced controllers expose their internal terms to the simulator.
type Traced interface {
	Trace() Trace
}

// Sample is one simulator step.
type Sample struct {
	Time     float64
	State    State
	Measured float64
	Control  Control
	Trace    Trace
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
	// Noise is the standard deviation of Gaussian noise added to each
	// measurement.
	Noise         float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.001,
		Duration:      5.0,
		ValidateState: true,
	}
}

type Result struct {
	Samples    []Sample
	Final      State
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Series extracts one value per sample.
func (r *Result) Series(fn func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = fn(s)
	}
	return out
}

func (r *Result) Times() []float64 {
	return r.Series(func(s Sample) float64 { return s.Time })
}

func (r *Result) Measured() []float64 {
	return r.Series(func(s Sample) float64 { return s.Measured })
}
