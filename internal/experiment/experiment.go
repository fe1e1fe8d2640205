package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/dynamo"
)

// SettlingBand is the tolerance used for step analysis, as a fraction of
// the step size.
const SettlingBand = 0.02

// Experiment is a fully wired closed-loop run.
type Experiment struct {
	Config     *config.Config
	Plant      dynamo.Plant
	Integrator dynamo.Integrator
	Controller dynamo.Controller
	Sim        *dynamo.Simulator
	X0         dynamo.State
	SimConfig  dynamo.Config
}

// Build validates cfg and assembles the plant, integrator, controller and
// default metrics.
func Build(reg *Registry, cfg *config.Config, log logr.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := reg.GetPlant(cfg.Plant)
	if err != nil {
		return nil, err
	}
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := reg.GetController(cfg, p.ControlDim(), log)
	if err != nil {
		return nil, err
	}

	s := dynamo.New(p, integ, ctrl)
	for _, m := range DefaultMetrics(cfg) {
		s.AddMetric(m)
	}

	simCfg := dynamo.DefaultConfig()
	simCfg.Dt = cfg.Dt
	simCfg.Duration = cfg.Duration
	simCfg.Seed = cfg.Seed
	simCfg.Noise = cfg.Noise

	return &Experiment{
		Config:     cfg,
		Plant:      p,
		Integrator: integ,
		Controller: ctrl,
		Sim:        s,
		X0:         dynamo.State(cfg.GetInitState()),
		SimConfig:  simCfg,
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.Sim.Run(ctx, e.X0, e.SimConfig)
}

// Analyze measures the step from the initial measurement to the setpoint
// the controller held at the end of the run.
func Analyze(res *dynamo.Result) (analysis.StepInfo, error) {
	if len(res.Samples) == 0 {
		return analysis.StepInfo{}, analysis.ErrEmptySeries
	}
	initial := res.Samples[0].Measured
	setpoint := res.Samples[len(res.Samples)-1].Trace.Setpoint
	info, err := analysis.StepResponse(res.Times(), res.Measured(), initial, setpoint, SettlingBand)
	if err != nil {
		return info, fmt.Errorf("step analysis: %w", err)
	}
	return info, nil
}

// RunEnsemble repeats cfg over runs consecutive seeds starting at cfg.Seed.
// Only meaningful with measurement noise.
func RunEnsemble(ctx context.Context, reg *Registry, cfg *config.Config, runs int, log logr.Logger) ([]*dynamo.Result, error) {
	first, err := Build(reg, cfg, log)
	if err != nil {
		return nil, err
	}
	build := func() (*dynamo.Simulator, error) {
		exp, err := Build(reg, cfg, log)
		if err != nil {
			return nil, err
		}
		return exp.Sim, nil
	}
	return dynamo.NewEnsemble(build, runs, cfg.Seed).Run(ctx, first.X0, first.SimConfig)
}
