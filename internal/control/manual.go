package control

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// Manual holds the plant input at a fixed value, bypassing feedback.
type Manual struct {
	Value float64
}

func NewManual(value float64) *Manual {
	return &Manual{Value: value}
}

func (m *Manual) Compute(measured float64, t float64) dynamo.Control {
	return dynamo.Control{m.Value}
}

func (m *Manual) Trace() dynamo.Trace {
	return dynamo.Trace{Output: m.Value}
}

func (m *Manual) GetParams() map[string]float64 {
	return map[string]float64{"output": m.Value}
}

func (m *Manual) SetParam(name string, value float64) error {
	if name != "output" {
		return fmt.Errorf("manual %q: %w", name, dynamo.ErrUnknownParameter)
	}
	m.Value = value
	return nil
}
