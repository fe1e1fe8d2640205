package control

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/pid"
)

// tolerance for comparing accumulated simulation time to sample instants
const tickEpsilon = 1e-9

// Loop runs a PID controller at its own sample period inside a simulation
// with a finer time step. Between sample instants the last output is held.
type Loop[T pid.Number[T]] struct {
	ctrl    *pid.Controller[T]
	log     logr.Logger
	out     float64
	next    float64
	started bool
}

func New[T pid.Number[T]](tu Tuning, log logr.Logger) (*Loop[T], error) {
	ctrl := &pid.Controller[T]{}
	ctrl.SetLogger(log)
	cfg := convert[T](tu)
	if err := ctrl.Init(cfg.Kp, cfg.Ki, cfg.Kd, cfg.Direction, cfg.OutputMode,
		cfg.SamplePeriod, cfg.OutMin, cfg.OutMax, cfg.Setpoint); err != nil {
		return nil, fmt.Errorf("building controller: %w", err)
	}
	return &Loop[T]{ctrl: ctrl, log: log}, nil
}

// Controller exposes the underlying PID for direct inspection.
func (l *Loop[T]) Controller() *pid.Controller[T] { return l.ctrl }

func (l *Loop[T]) Compute(measured float64, t float64) dynamo.Control {
	if !l.started || t+tickEpsilon >= l.next {
		var zero T
		l.out = l.ctrl.Run(zero.FromFloat(measured)).Float64()

		// Sample instants stay on a fixed grid from the first tick so a
		// coarse dt delays single ticks without slowing the rate.
		period := l.ctrl.SamplePeriod().Seconds()
		if !l.started {
			l.next = t
			l.started = true
		}
		for l.next <= t+tickEpsilon {
			l.next += period
		}
	}
	return dynamo.Control{l.out}
}

func (l *Loop[T]) Trace() dynamo.Trace {
	p, i, d := l.ctrl.Terms()
	return dynamo.Trace{
		Setpoint: l.ctrl.Setpoint().Float64(),
		Output:   l.out,
		P:        p.Float64(),
		I:        i.Float64(),
		D:        d.Float64(),
	}
}

// Reset re-initializes the controller with its current tuning, clearing
// the integral, the derivative history and the run counter.
func (l *Loop[T]) Reset() error {
	c := l.ctrl
	lo, hi := c.OutputLimits()
	if err := c.Init(c.Kp(), c.Ki(), c.Kd(), c.Direction(), c.OutputMode(),
		c.SamplePeriod(), lo, hi, c.Setpoint()); err != nil {
		return err
	}
	l.out, l.next, l.started = 0, 0, false
	return nil
}

// Tuning returns the current controller setup.
func (l *Loop[T]) Tuning() Tuning {
	c := l.ctrl
	lo, hi := c.OutputLimits()
	return Tuning{
		Kp:           c.Kp().Float64(),
		Ki:           c.Ki().Float64(),
		Kd:           c.Kd().Float64(),
		Direction:    c.Direction(),
		OutputMode:   c.OutputMode(),
		SamplePeriod: c.SamplePeriod(),
		OutMin:       lo.Float64(),
		OutMax:       hi.Float64(),
		Setpoint:     c.Setpoint().Float64(),
	}
}

func (l *Loop[T]) GetParams() map[string]float64 {
	tu := l.Tuning()
	reverse := 0.0
	if tu.Direction == pid.Reverse {
		reverse = 1
	}
	return map[string]float64{
		"kp":        tu.Kp,
		"ki":        tu.Ki,
		"kd":        tu.Kd,
		"setpoint":  tu.Setpoint,
		"sample_ms": float64(tu.SamplePeriod) / float64(time.Millisecond),
		"reverse":   reverse,
	}
}

func (l *Loop[T]) SetParam(name string, value float64) error {
	var zero T
	c := l.ctrl
	v := zero.FromFloat(value)

	var err error
	switch name {
	case "kp":
		err = c.SetTunings(v, c.Ki(), c.Kd())
	case "ki":
		err = c.SetTunings(c.Kp(), v, c.Kd())
	case "kd":
		err = c.SetTunings(c.Kp(), c.Ki(), v)
	case "setpoint":
		err = c.SetSetpoint(v)
	case "sample_ms":
		err = c.SetSamplePeriod(time.Duration(value * float64(time.Millisecond)))
	case "reverse":
		dir := pid.Direct
		if value != 0 {
			dir = pid.Reverse
		}
		err = c.SetControllerDirection(dir)
	default:
		return fmt.Errorf("pid %q: %w", name, dynamo.ErrUnknownParameter)
	}
	if err != nil {
		return fmt.Errorf("set %s=%v: %w", name, value, err)
	}
	return nil
}
