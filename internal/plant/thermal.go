package plant

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	DefaultHeatCapacity = 50.0
	DefaultResistance   = 0.5
	DefaultAmbient      = 20.0
)

// Thermal is a lumped thermal mass exchanging heat with ambient:
//
//	C dT/dt = G·u - (T - Ta)/R
//
// u is actuator power in percent. A heater has G > 0; a cooler has G < 0
// and needs a reverse-acting controller.
type Thermal struct {
	HeatCapacity float64
	Resistance   float64
	Ambient      float64
	Gain         float64
}

func NewHeater() *Thermal {
	return &Thermal{
		HeatCapacity: DefaultHeatCapacity,
		Resistance:   DefaultResistance,
		Ambient:      DefaultAmbient,
		Gain:         1.0,
	}
}

func NewCooler() *Thermal {
	t := NewHeater()
	t.Gain = -0.5
	return t
}

func (p *Thermal) StateDim() int   { return 1 }
func (p *Thermal) ControlDim() int { return 1 }

func (p *Thermal) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	power := 0.0
	if len(u) > 0 {
		power = u[0]
	}
	loss := (x[0] - p.Ambient) / p.Resistance
	return dynamo.State{(p.Gain*power - loss) / p.HeatCapacity}
}

func (p *Thermal) Measure(x dynamo.State) float64 { return x[0] }

// SteadyState returns the settled temperature for constant power.
func (p *Thermal) SteadyState(power float64) float64 {
	return p.Ambient + p.Gain*power*p.Resistance
}

func (p *Thermal) GetParams() map[string]float64 {
	return map[string]float64{
		"capacity":   p.HeatCapacity,
		"resistance": p.Resistance,
		"ambient":    p.Ambient,
		"gain":       p.Gain,
	}
}

func (p *Thermal) SetParam(name string, value float64) error {
	switch name {
	case "capacity":
		if value <= 0 {
			return fmt.Errorf("capacity %v: %w", value, dynamo.ErrParameterBounds)
		}
		p.HeatCapacity = value
	case "resistance":
		if value <= 0 {
			return fmt.Errorf("resistance %v: %w", value, dynamo.ErrParameterBounds)
		}
		p.Resistance = value
	case "ambient":
		p.Ambient = value
	case "gain":
		p.Gain = value
	default:
		return fmt.Errorf("thermal %q: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
