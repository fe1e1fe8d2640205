package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/fixed"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/pid"
	"github.com/san-kum/pidlab/internal/plant"
)

var (
	ErrUnknownPlant      = errors.New("unknown plant")
	ErrUnknownIntegrator = errors.New("unknown integrator")
	ErrUnknownController = errors.New("unknown controller")
	ErrUnknownBackend    = errors.New("unknown backend")
)

type Registry struct {
	plants      map[string]func() dynamo.Plant
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		plants:      make(map[string]func() dynamo.Plant),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.plants["motor"] = func() dynamo.Plant { return plant.NewMotor() }
	r.plants["heater"] = func() dynamo.Plant { return plant.NewHeater() }
	r.plants["cooler"] = func() dynamo.Plant { return plant.NewCooler() }
	r.plants["spring_mass"] = func() dynamo.Plant { return plant.NewSpringMass() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetPlant(name string) (dynamo.Plant, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlant, name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

// GetController builds the controller named by cfg.Controller. PID loops
// use the numeric backend named by cfg.Backend.
func (r *Registry) GetController(cfg *config.Config, controlDim int, log logr.Logger) (dynamo.Controller, error) {
	switch cfg.Controller {
	case "none":
		return control.NewNone(controlDim), nil
	case "manual":
		return control.NewManual(cfg.Manual), nil
	case "pid":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownController, cfg.Controller)
	}

	tu, err := cfg.Tuning()
	if err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case config.BackendFloat:
		loop, err := control.New[pid.Float](tu, log)
		if err != nil {
			return nil, err
		}
		return loop, nil
	case config.BackendFixed:
		loop, err := control.New[fixed.Q16](tu, log)
		if err != nil {
			return nil, err
		}
		return loop, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func (r *Registry) ListPlants() []string {
	return sortedKeys(r.plants)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh metrics suited to cfg. The in-band metric
// uses a 2 % band around the setpoint.
func DefaultMetrics(cfg *config.Config) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewControlEffort(),
		metrics.NewIAE(),
		metrics.NewISE(),
		metrics.NewMaxOvershoot(),
	}
	if cfg.Controller == "pid" {
		band := 0.02 * max(abs(cfg.PID.Setpoint-cfg.InitState.Value), 1)
		ms = append(ms,
			metrics.NewInBand(band),
			metrics.NewSaturation(cfg.PID.OutMin, cfg.PID.OutMax),
		)
	}
	return ms
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
