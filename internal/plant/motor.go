package plant

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	DefaultInertia     = 0.01
	DefaultFriction    = 0.1
	DefaultTorqueConst = 0.5
)

// Motor is a first-order DC motor speed model:
//
//	J dω/dt = K·u - B·ω
//
// where u is the armature voltage and ω the shaft speed in rad/s.
type Motor struct {
	Inertia     float64
	Friction    float64
	TorqueConst float64
}

func NewMotor() *Motor {
	return &Motor{
		Inertia:     DefaultInertia,
		Friction:    DefaultFriction,
		TorqueConst: DefaultTorqueConst,
	}
}

func (m *Motor) StateDim() int   { return 1 }
func (m *Motor) ControlDim() int { return 1 }

func (m *Motor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	v := 0.0
	if len(u) > 0 {
		v = u[0]
	}
	return dynamo.State{(m.TorqueConst*v - m.Friction*x[0]) / m.Inertia}
}

func (m *Motor) Measure(x dynamo.State) float64 { return x[0] }

// SteadyState returns the speed the motor settles at for a constant voltage.
func (m *Motor) SteadyState(v float64) float64 {
	return m.TorqueConst * v / m.Friction
}

func (m *Motor) GetParams() map[string]float64 {
	return map[string]float64{
		"inertia":  m.Inertia,
		"friction": m.Friction,
		"torque":   m.TorqueConst,
	}
}

func (m *Motor) SetParam(name string, value float64) error {
	switch name {
	case "inertia":
		if value <= 0 {
			return fmt.Errorf("inertia %v: %w", value, dynamo.ErrParameterBounds)
		}
		m.Inertia = value
	case "friction":
		if value < 0 {
			return fmt.Errorf("friction %v: %w", value, dynamo.ErrParameterBounds)
		}
		m.Friction = value
	case "torque":
		m.TorqueConst = value
	default:
		return fmt.Errorf("motor %q: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
