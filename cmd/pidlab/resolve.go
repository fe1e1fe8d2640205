package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/config"
)

// resolveConfig layers the run configuration: defaults, then the preset,
// then the config file, then any flag given explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) == 1 {
		cfg.Plant = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Plant, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Plant))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			loaded.Plant = args[0]
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	apply := func(name string, fn func()) {
		if changed(name) {
			fn()
		}
	}
	apply("dt", func() { cfg.Dt = dt })
	apply("time", func() { cfg.Duration = duration })
	apply("seed", func() { cfg.Seed = seed })
	apply("noise", func() { cfg.Noise = noise })
	apply("init", func() { cfg.InitState.Value = initValue })
	apply("integrator", func() { cfg.Integrator = integrator })
	apply("controller", func() { cfg.Controller = controller })
	apply("backend", func() { cfg.Backend = backend })
	apply("kp", func() { cfg.PID.Kp = kp })
	apply("ki", func() { cfg.PID.Ki = ki })
	apply("kd", func() { cfg.PID.Kd = kd })
	apply("setpoint", func() { cfg.PID.Setpoint = setpoint })
	apply("sample-ms", func() { cfg.PID.SampleMs = sampleMs })
	apply("out-min", func() { cfg.PID.OutMin = outMin })
	apply("out-max", func() { cfg.PID.OutMax = outMax })
	apply("direction", func() { cfg.PID.Direction = direction })
	apply("mode", func() { cfg.PID.OutputMode = outputMode })
	apply("manual", func() { cfg.Manual = manualOut })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
