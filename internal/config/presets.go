package config

import "sort"

func tuned(kp, ki, kd, setpoint, sampleMs, lo, hi float64) PIDConfig {
	return PIDConfig{
		Kp: kp, Ki: ki, Kd: kd,
		Direction:  "direct",
		OutputMode: "non-accumulating",
		SampleMs:   sampleMs,
		OutMin:     lo,
		OutMax:     hi,
		Setpoint:   setpoint,
	}
}

var Presets = map[string]map[string]*Config{
	"motor": {
		"speed": {
			Plant: "motor", Integrator: "rk4", Controller: "pid", Backend: BackendFloat,
			Dt: 0.001, Duration: 5.0,
			PID: tuned(0.5, 2.0, 0, 50, 10, -24, 24),
		},
		"velocity": {
			Plant: "motor", Integrator: "rk4", Controller: "pid", Backend: BackendFloat,
			Dt: 0.001, Duration: 5.0,
			PID: PIDConfig{
				Kp: 0.05, Ki: 0.2, Direction: "direct", OutputMode: "accumulating",
				SampleMs: 10, OutMin: -24, OutMax: 24, Setpoint: 50,
			},
		},
		"fixed": {
			Plant: "motor", Integrator: "rk4", Controller: "pid", Backend: BackendFixed,
			Dt: 0.001, Duration: 5.0,
			PID: tuned(0.5, 2.0, 0, 50, 10, -24, 24),
		},
		"open_loop": {
			Plant: "motor", Integrator: "rk4", Controller: "manual", Backend: BackendFloat,
			Dt: 0.001, Duration: 2.0, Manual: 10,
		},
	},
	"heater": {
		"warmup": {
			Plant: "heater", Integrator: "rk4", Controller: "pid", Backend: BackendFloat,
			Dt: 0.01, Duration: 300.0, Noise: 0.05,
			InitState: InitStateConfig{Value: 20},
			PID:       tuned(8, 0.4, 0, 60, 1000, 0, 100),
		},
	},
	"cooler": {
		"chill": {
			Plant: "cooler", Integrator: "rk4", Controller: "pid", Backend: BackendFloat,
			Dt: 0.01, Duration: 300.0,
			InitState: InitStateConfig{Value: 20},
			PID: PIDConfig{
				Kp: 16, Ki: 0.8, Direction: "reverse", OutputMode: "non-accumulating",
				SampleMs: 1000, OutMin: 0, OutMax: 100, Setpoint: 5,
			},
		},
	},
	"spring_mass": {
		"position": {
			Plant: "spring_mass", Integrator: "rk4", Controller: "pid", Backend: BackendFloat,
			Dt: 0.001, Duration: 10.0,
			PID: tuned(20, 10, 4, 1, 10, -50, 50),
		},
		"bounce": {
			Plant: "spring_mass", Integrator: "rk4", Controller: "none", Backend: BackendFloat,
			Dt: 0.001, Duration: 10.0,
			InitState: InitStateConfig{Value: 2},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(plant, preset string) *Config {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	cfg, ok := plantPresets[preset]
	if !ok {
		return nil
	}
	cp := *cfg
	return &cp
}

func ListPresets(plant string) []string {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
