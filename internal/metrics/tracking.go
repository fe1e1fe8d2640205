package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// IAE integrates the absolute tracking error over time. Each error value is
// held until the next sample.
type IAE struct {
	name     string
	sum      float64
	prevT    float64
	prevErr  float64
	observed bool
	square   bool
}

func NewIAE() *IAE {
	return &IAE{name: "iae"}
}

// NewISE integrates the squared error instead, penalizing large deviations.
func NewISE() *IAE {
	return &IAE{name: "ise", square: true}
}

func (m *IAE) Name() string { return m.name }

func (m *IAE) Observe(s dynamo.Sample) {
	e := s.Trace.Setpoint - s.Measured
	if m.square {
		e *= e
	} else {
		e = math.Abs(e)
	}
	if m.observed {
		m.sum += m.prevErr * (s.Time - m.prevT)
	}
	m.prevT, m.prevErr = s.Time, e
	m.observed = true
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() {
	m.sum = 0
	m.prevT, m.prevErr = 0, 0
	m.observed = false
}

// MaxOvershoot is the largest excursion past the setpoint, measured in the
// direction the plant started moving toward it.
type MaxOvershoot struct {
	name     string
	sign     float64
	max      float64
	observed bool
}

func NewMaxOvershoot() *MaxOvershoot {
	return &MaxOvershoot{name: "max_overshoot"}
}

func (m *MaxOvershoot) Name() string { return m.name }

func (m *MaxOvershoot) Observe(s dynamo.Sample) {
	gap := s.Trace.Setpoint - s.Measured
	if !m.observed {
		m.sign = 1
		if gap < 0 {
			m.sign = -1
		}
		m.observed = true
	}
	m.max = math.Max(m.max, -m.sign*gap)
}

func (m *MaxOvershoot) Value() float64 { return m.max }

func (m *MaxOvershoot) Reset() {
	m.sign, m.max = 0, 0
	m.observed = false
}
