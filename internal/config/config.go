package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/pid"
)

const (
	DefaultDt       = 0.001
	DefaultDuration = 5.0
	DefaultSampleMs = 10.0
	DefaultKp       = 0.5
	DefaultKi       = 2.0
	DefaultSetpoint = 50.0
	DefaultOutLimit = 24.0
)

const (
	BackendFloat = "float"
	BackendFixed = "fixed"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Plant      string          `yaml:"plant"`
	Integrator string          `yaml:"integrator"`
	Controller string          `yaml:"controller"`
	Backend    string          `yaml:"backend"`
	Dt         float64         `yaml:"dt"`
	Duration   float64         `yaml:"duration"`
	Seed       int64           `yaml:"seed"`
	Noise      float64         `yaml:"noise"`
	InitState  InitStateConfig `yaml:"init_state"`
	PID        PIDConfig       `yaml:"pid"`
	Manual     float64         `yaml:"manual_output"`
}

// InitStateConfig is the plant's starting point. Value is the measured
// quantity (speed, temperature or position); Rate only applies to
// second-order plants.
type InitStateConfig struct {
	Value float64 `yaml:"value"`
	Rate  float64 `yaml:"rate"`
}

type PIDConfig struct {
	Kp         float64 `yaml:"kp"`
	Ki         float64 `yaml:"ki"`
	Kd         float64 `yaml:"kd"`
	Direction  string  `yaml:"direction"`
	OutputMode string  `yaml:"output_mode"`
	SampleMs   float64 `yaml:"sample_ms"`
	OutMin     float64 `yaml:"out_min"`
	OutMax     float64 `yaml:"out_max"`
	Setpoint   float64 `yaml:"setpoint"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      "motor",
		Integrator: "rk4",
		Controller: "pid",
		Backend:    BackendFloat,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		PID: PIDConfig{
			Kp:         DefaultKp,
			Ki:         DefaultKi,
			Direction:  pid.Direct.String(),
			OutputMode: pid.NonAccumulating.String(),
			SampleMs:   DefaultSampleMs,
			OutMin:     -DefaultOutLimit,
			OutMax:     DefaultOutLimit,
			Setpoint:   DefaultSetpoint,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that do not depend on the plant registry.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfig)
	}

	switch {
	case c.Dt <= 0:
		return invalid("dt must be positive, got %v", c.Dt)
	case c.Duration <= 0:
		return invalid("duration must be positive, got %v", c.Duration)
	case c.Noise < 0:
		return invalid("noise must be non-negative, got %v", c.Noise)
	case c.Backend != BackendFloat && c.Backend != BackendFixed:
		return invalid("unknown backend %q", c.Backend)
	}

	if c.Controller != "pid" {
		return nil
	}
	p := c.PID
	switch {
	case p.SampleMs <= 0:
		return invalid("sample_ms must be positive, got %v", p.SampleMs)
	case p.SampleMs/1000 < c.Dt:
		return invalid("sample period %vms is shorter than dt %vs", p.SampleMs, c.Dt)
	case p.OutMin >= p.OutMax:
		return invalid("out_min %v must be below out_max %v", p.OutMin, p.OutMax)
	case p.Kp < 0 || p.Ki < 0 || p.Kd < 0:
		return invalid("gains must be non-negative")
	}
	if _, err := pid.ParseDirection(p.Direction); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := pid.ParseOutputMode(p.OutputMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Tuning converts the pid section. Call Validate first.
func (c *Config) Tuning() (control.Tuning, error) {
	dir, err := pid.ParseDirection(c.PID.Direction)
	if err != nil {
		return control.Tuning{}, err
	}
	mode, err := pid.ParseOutputMode(c.PID.OutputMode)
	if err != nil {
		return control.Tuning{}, err
	}
	return control.Tuning{
		Kp:           c.PID.Kp,
		Ki:           c.PID.Ki,
		Kd:           c.PID.Kd,
		Direction:    dir,
		OutputMode:   mode,
		SamplePeriod: time.Duration(c.PID.SampleMs * float64(time.Millisecond)),
		OutMin:       c.PID.OutMin,
		OutMax:       c.PID.OutMax,
		Setpoint:     c.PID.Setpoint,
	}, nil
}

func (c *Config) GetInitState() []float64 {
	switch c.Plant {
	case "spring_mass":
		return []float64{c.InitState.Value, c.InitState.Rate}
	default:
		return []float64{c.InitState.Value}
	}
}
