package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// InBand is the fraction of samples whose measurement lies within
// threshold of the setpoint.
type InBand struct {
	name      string
	threshold float64
	inside    int
	samples   int
}

func NewInBand(threshold float64) *InBand {
	return &InBand{
		name:      "in_band",
		threshold: threshold,
	}
}

func (b *InBand) Name() string {
	return b.name
}

func (b *InBand) Observe(s dynamo.Sample) {
	b.samples++
	if math.Abs(s.Trace.Setpoint-s.Measured) <= b.threshold {
		b.inside++
	}
}

func (b *InBand) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.inside) / float64(b.samples)
}

func (b *InBand) Reset() {
	b.inside = 0
	b.samples = 0
}

// Saturation is the fraction of samples where the controller output sat
// at one of its limits.
type Saturation struct {
	name     string
	min, max float64
	hits     int
	samples  int
}

func NewSaturation(min, max float64) *Saturation {
	return &Saturation{name: "saturation", min: min, max: max}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(smp dynamo.Sample) {
	s.samples++
	if smp.Trace.Output <= s.min || smp.Trace.Output >= s.max {
		s.hits++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.hits) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.hits = 0
	s.samples = 0
}
