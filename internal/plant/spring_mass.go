package plant

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SpringMass is a single mass on a spring and damper, driven by a force.
// State is [position, velocity]; the sensor reads position.
type SpringMass struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

func NewSpringMass() *SpringMass {
	return &SpringMass{
		Mass:      DefaultMass,
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

func (s *SpringMass) StateDim() int   { return 2 }
func (s *SpringMass) ControlDim() int { return 1 }

func (s *SpringMass) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	extForce := 0.0
	if len(u) > 0 {
		extForce = u[0]
	}
	pos, vel := x[0], x[1]
	force := -s.Stiffness*pos - s.Damping*vel + extForce
	return dynamo.State{vel, force / s.Mass}
}

func (s *SpringMass) Measure(x dynamo.State) float64 { return x[0] }

func (s *SpringMass) Energy(x dynamo.State) float64 {
	pos, vel := x[0], x[1]
	return 0.5*s.Mass*vel*vel + 0.5*s.Stiffness*pos*pos
}

func (s *SpringMass) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      s.Mass,
		"stiffness": s.Stiffness,
		"damping":   s.Damping,
	}
}

func (s *SpringMass) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		if value <= 0 {
			return fmt.Errorf("mass %v: %w", value, dynamo.ErrParameterBounds)
		}
		s.Mass = value
	case "stiffness":
		if value < 0 {
			return fmt.Errorf("stiffness %v: %w", value, dynamo.ErrParameterBounds)
		}
		s.Stiffness = value
	case "damping":
		if value < 0 {
			return fmt.Errorf("damping %v: %w", value, dynamo.ErrParameterBounds)
		}
		s.Damping = value
	default:
		return fmt.Errorf("spring_mass %q: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
