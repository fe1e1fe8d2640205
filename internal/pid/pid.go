package pid

import (
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
)

// Config holds the parameters applied by Init.
type Config[T Number[T]] struct {
	Kp, Ki, Kd   T
	Direction    Direction
	OutputMode   OutputMode
	SamplePeriod time.Duration
	OutMin       T
	OutMax       T
	Setpoint     T
}

// Controller is a discrete-time PID controller. The zero value is
// uninitialized; Run on it returns zero and has no effect.
type Controller[T Number[T]] struct {
	actualKp, actualKi, actualKd T
	// time-scaled, sign-adjusted copies used by Run
	zKp, zKi, zKd T

	direction  Direction
	outputMode OutputMode

	setpoint   T
	prevInput  T
	prevOutput T
	err        T
	pTerm      T
	iTerm      T
	dTerm      T

	outMin, outMax T
	samplePeriod   time.Duration

	// saturates at math.MaxUint32
	runCount    uint32
	initialized bool

	log logr.Logger
}

// New returns an initialized controller.
func New[T Number[T]](cfg Config[T]) (*Controller[T], error) {
	c := &Controller[T]{}
	if err := c.Init(cfg.Kp, cfg.Ki, cfg.Kd, cfg.Direction, cfg.OutputMode,
		cfg.SamplePeriod, cfg.OutMin, cfg.OutMax, cfg.Setpoint); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLogger sets the sink for diagnostic messages. Tuning changes are
// logged at V(1).
func (c *Controller[T]) SetLogger(l logr.Logger) {
	c.log = l.WithName("pid")
}

// Init validates every parameter and then applies them all. On error the
// controller is left exactly as it was.
func (c *Controller[T]) Init(kp, ki, kd T, direction Direction, mode OutputMode,
	samplePeriod time.Duration, outMin, outMax, setpoint T) error {
	if !outMin.Less(outMax) {
		return fmt.Errorf("init: %w", ErrInvalidLimits)
	}
	if samplePeriod <= 0 {
		return fmt.Errorf("init: %w", ErrInvalidSamplePeriod)
	}
	if negative(kp, ki, kd) {
		return fmt.Errorf("init: %w", ErrNegativeGain)
	}
	if !direction.valid() {
		return fmt.Errorf("init: %w: %v", ErrUnknownDirection, direction)
	}
	if !mode.valid() {
		return fmt.Errorf("init: %w: %v", ErrUnknownOutputMode, mode)
	}

	c.outMin, c.outMax = outMin, outMax
	c.samplePeriod = samplePeriod
	c.direction = direction
	c.outputMode = mode
	c.applyTunings(kp, ki, kd)
	c.setpoint = setpoint

	var zero T
	c.prevInput = zero
	c.prevOutput = zero
	c.err = zero
	c.pTerm = zero
	c.iTerm = zero
	c.dTerm = zero
	c.runCount = 0
	c.initialized = true
	return nil
}

// Run computes one tick. Call it once per sample period.
func (c *Controller[T]) Run(input T) T {
	if !c.initialized {
		var zero T
		return zero
	}

	c.err = c.setpoint.Sub(input)

	c.iTerm = clamp(c.iTerm.Add(c.zKi.Mul(c.err)), c.outMin, c.outMax)

	// Derivative on measurement; the first tick has no previous input.
	if c.runCount > 0 {
		c.dTerm = c.zKd.Mul(input.Sub(c.prevInput)).Neg()
	}

	c.pTerm = c.zKp.Mul(c.err)

	var output T
	switch c.outputMode {
	case Accumulating:
		output = c.prevOutput.Add(c.pTerm).Add(c.iTerm).Add(c.dTerm)
	default:
		output = c.pTerm.Add(c.iTerm).Add(c.dTerm)
	}
	output = clamp(output, c.outMin, c.outMax)

	c.prevInput = input
	c.prevOutput = output

	if c.runCount < math.MaxUint32 {
		c.runCount++
	}
	return output
}

// SetTunings replaces the gains. A negative gain rejects the whole call.
func (c *Controller[T]) SetTunings(kp, ki, kd T) error {
	if !c.initialized {
		return ErrUninitialized
	}
	if negative(kp, ki, kd) {
		return ErrNegativeGain
	}
	c.applyTunings(kp, ki, kd)
	return nil
}

func (c *Controller[T]) applyTunings(kp, ki, kd T) {
	c.actualKp, c.actualKi, c.actualKd = kp, ki, kd

	seconds := num[T](c.samplePeriod.Seconds())
	c.zKp = kp
	c.zKi = ki.Mul(seconds)
	c.zKd = kd.Div(seconds)

	if c.direction == Reverse {
		c.zKp = c.zKp.Neg()
		c.zKi = c.zKi.Neg()
		c.zKd = c.zKd.Neg()
	}

	c.log.V(1).Info("tuning parameters set",
		"kp", kp.Float64(), "ki", ki.Float64(), "kd", kd.Float64(),
		"zp", c.zKp.Float64(), "zi", c.zKi.Float64(), "zd", c.zKd.Float64(),
		"samplePeriodMs", float64(c.samplePeriod)/float64(time.Millisecond))
}

// SetOutputLimits replaces the output range. The integral term and last
// output are not reclamped until the next Run.
func (c *Controller[T]) SetOutputLimits(min, max T) error {
	if !c.initialized {
		return ErrUninitialized
	}
	if !min.Less(max) {
		return ErrInvalidLimits
	}
	c.outMin, c.outMax = min, max
	return nil
}

// SetControllerDirection flips the sign of the scaled gains when the
// direction actually changes. Values other than Direct and Reverse are
// rejected.
func (c *Controller[T]) SetControllerDirection(direction Direction) error {
	if !c.initialized {
		return ErrUninitialized
	}
	if !direction.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownDirection, direction)
	}
	if direction != c.direction {
		c.zKp = c.zKp.Neg()
		c.zKi = c.zKi.Neg()
		c.zKd = c.zKd.Neg()
		c.log.V(1).Info("controller direction changed", "from", c.direction.String(), "to", direction.String())
	}
	c.direction = direction
	return nil
}

// SetSamplePeriod rescales the integral and derivative gains so the
// physical tuning is unchanged at the new rate: doubling the period
// doubles Zi and halves Zd.
func (c *Controller[T]) SetSamplePeriod(period time.Duration) error {
	if !c.initialized {
		return ErrUninitialized
	}
	if period <= 0 {
		return ErrInvalidSamplePeriod
	}
	ratio := num[T](float64(period) / float64(c.samplePeriod))
	c.zKi = c.zKi.Mul(ratio)
	c.zKd = c.zKd.Div(ratio)
	c.samplePeriod = period
	return nil
}

// SetSetpoint replaces the target. The change is applied as a step.
func (c *Controller[T]) SetSetpoint(setpoint T) error {
	if !c.initialized {
		return ErrUninitialized
	}
	c.setpoint = setpoint
	return nil
}

// SetOutputMode switches between positional and velocity form.
func (c *Controller[T]) SetOutputMode(mode OutputMode) error {
	if !c.initialized {
		return ErrUninitialized
	}
	if !mode.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownOutputMode, mode)
	}
	c.outputMode = mode
	return nil
}

// Initialized reports whether Init has succeeded at least once.
func (c *Controller[T]) Initialized() bool { return c.initialized }

// Kp, Ki and Kd return the gains as given by the caller.
func (c *Controller[T]) Kp() T { return c.actualKp }
func (c *Controller[T]) Ki() T { return c.actualKi }
func (c *Controller[T]) Kd() T { return c.actualKd }

// Zp, Zi and Zd return the scaled gains used by Run.
func (c *Controller[T]) Zp() T { return c.zKp }
func (c *Controller[T]) Zi() T { return c.zKi }
func (c *Controller[T]) Zd() T { return c.zKd }

func (c *Controller[T]) Setpoint() T                 { return c.setpoint }
func (c *Controller[T]) Direction() Direction        { return c.direction }
func (c *Controller[T]) OutputMode() OutputMode      { return c.outputMode }
func (c *Controller[T]) SamplePeriod() time.Duration { return c.samplePeriod }
func (c *Controller[T]) OutputLimits() (min, max T)  { return c.outMin, c.outMax }

// Deviation returns the error signal, setpoint - input, from the last Run.
func (c *Controller[T]) Deviation() T { return c.err }

// Output returns the last clamped output.
func (c *Controller[T]) Output() T { return c.prevOutput }

// Terms returns the proportional, integral and derivative contributions
// from the last Run.
func (c *Controller[T]) Terms() (p, i, d T) { return c.pTerm, c.iTerm, c.dTerm }

func (c *Controller[T]) RunCount() uint32 { return c.runCount }

func negative[T Number[T]](gains ...T) bool {
	var zero T
	for _, g := range gains {
		if g.Less(zero) {
			return true
		}
	}
	return false
}
