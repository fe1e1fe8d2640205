package control

import (
	"time"

	"github.com/san-kum/pidlab/internal/pid"
)

// Tuning is a backend-independent controller setup. Values are converted
// to the loop's numeric type when the controller is built.
type Tuning struct {
	Kp, Ki, Kd   float64
	Direction    pid.Direction
	OutputMode   pid.OutputMode
	SamplePeriod time.Duration
	OutMin       float64
	OutMax       float64
	Setpoint     float64
}

func DefaultTuning() Tuning {
	return Tuning{
		Kp:           1.0,
		Ki:           0.5,
		Kd:           0.0,
		Direction:    pid.Direct,
		OutputMode:   pid.NonAccumulating,
		SamplePeriod: 100 * time.Millisecond,
		OutMin:       -100,
		OutMax:       100,
	}
}

func convert[T pid.Number[T]](tu Tuning) pid.Config[T] {
	var zero T
	return pid.Config[T]{
		Kp:           zero.FromFloat(tu.Kp),
		Ki:           zero.FromFloat(tu.Ki),
		Kd:           zero.FromFloat(tu.Kd),
		Direction:    tu.Direction,
		OutputMode:   tu.OutputMode,
		SamplePeriod: tu.SamplePeriod,
		OutMin:       zero.FromFloat(tu.OutMin),
		OutMax:       zero.FromFloat(tu.OutMax),
		Setpoint:     zero.FromFloat(tu.Setpoint),
	}
}
