package pid_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidlab/internal/fixed"
	"github.com/san-kum/pidlab/internal/pid"
)

var _ = controllerSpecs("float64", func(v float64) pid.Float { return pid.Float(v) })
var _ = controllerSpecs("Q16.16", fixed.FromFloat)

// 125ms keeps every scaled gain exact in Q16.16.
const period = 125 * time.Millisecond

func controllerSpecs[T pid.Number[T]](backend string, n func(float64) T) bool {
	expectValue := func(actual T, want float64) {
		ExpectWithOffset(1, actual.Float64()).To(BeNumerically("~", want, 1e-4))
	}

	newController := func(kp, ki, kd float64, dir pid.Direction, mode pid.OutputMode, min, max, setpoint float64) *pid.Controller[T] {
		c, err := pid.New(pid.Config[T]{
			Kp: n(kp), Ki: n(ki), Kd: n(kd),
			Direction:    dir,
			OutputMode:   mode,
			SamplePeriod: period,
			OutMin:       n(min),
			OutMax:       n(max),
			Setpoint:     n(setpoint),
		})
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return c
	}

	return Describe("Controller ("+backend+")", func() {
		Describe("Init", func() {
			It("rejects an empty output range and stays uninitialized", func() {
				c := &pid.Controller[T]{}
				err := c.Init(n(1), n(0), n(0), pid.Direct, pid.NonAccumulating, period, n(10), n(10), n(0))
				Expect(err).To(MatchError(pid.ErrInvalidLimits))
				Expect(c.Initialized()).To(BeFalse())
				expectValue(c.Run(n(3)), 0)
				Expect(c.RunCount()).To(BeZero())
			})

			It("rejects a non-positive sample period", func() {
				c := &pid.Controller[T]{}
				err := c.Init(n(1), n(0), n(0), pid.Direct, pid.NonAccumulating, 0, n(-1), n(1), n(0))
				Expect(err).To(MatchError(pid.ErrInvalidSamplePeriod))
				Expect(c.Initialized()).To(BeFalse())
			})

			It("rejects negative gains", func() {
				c := &pid.Controller[T]{}
				err := c.Init(n(1), n(-0.5), n(0), pid.Direct, pid.NonAccumulating, period, n(-1), n(1), n(0))
				Expect(err).To(MatchError(pid.ErrNegativeGain))
				Expect(c.Initialized()).To(BeFalse())
			})

			It("stores setpoint, output mode, direction and limits", func() {
				c := newController(1, 2, 3, pid.Reverse, pid.Accumulating, -4, 6, 5)
				expectValue(c.Setpoint(), 5)
				Expect(c.OutputMode()).To(Equal(pid.Accumulating))
				Expect(c.Direction()).To(Equal(pid.Reverse))
				Expect(c.SamplePeriod()).To(Equal(period))
				lo, hi := c.OutputLimits()
				expectValue(lo, -4)
				expectValue(hi, 6)
			})

			It("resets running state on a second Init", func() {
				c := newController(1, 1, 1, pid.Direct, pid.NonAccumulating, -10, 10, 5)
				c.Run(n(1))
				c.Run(n(2))
				Expect(c.Init(n(1), n(1), n(1), pid.Direct, pid.NonAccumulating, period, n(-10), n(10), n(5))).To(Succeed())
				Expect(c.RunCount()).To(BeZero())
				p, i, d := c.Terms()
				expectValue(p, 0)
				expectValue(i, 0)
				expectValue(d, 0)
				expectValue(c.Output(), 0)
			})

			It("returns ErrUninitialized from setters before Init", func() {
				c := &pid.Controller[T]{}
				Expect(c.SetTunings(n(1), n(1), n(1))).To(MatchError(pid.ErrUninitialized))
				Expect(c.SetOutputLimits(n(0), n(1))).To(MatchError(pid.ErrUninitialized))
				Expect(c.SetControllerDirection(pid.Reverse)).To(MatchError(pid.ErrUninitialized))
				Expect(c.SetSamplePeriod(time.Second)).To(MatchError(pid.ErrUninitialized))
				Expect(c.SetSetpoint(n(1))).To(MatchError(pid.ErrUninitialized))
				Expect(c.SetOutputMode(pid.Accumulating)).To(MatchError(pid.ErrUninitialized))
			})
		})

		Describe("Run", func() {
			It("follows the proportional-only scenario", func() {
				c, err := pid.New(pid.Config[T]{
					Kp: n(1), Ki: n(0), Kd: n(0),
					SamplePeriod: 100 * time.Millisecond,
					OutMin:       n(-10), OutMax: n(10),
					Setpoint: n(5),
				})
				Expect(err).NotTo(HaveOccurred())

				expectValue(c.Run(n(0)), 5)
				expectValue(c.Deviation(), 5)

				expectValue(c.Run(n(20)), -10)
				expectValue(c.Deviation(), -15)
			})

			It("always returns a value within the output limits", func() {
				c := newController(50, 20, 2, pid.Direct, pid.Accumulating, -3, 7, 0)
				for _, in := range []float64{-1000, -50, -1, 0, 1, 50, 1000, 0, -1000, 1000} {
					out := c.Run(n(in)).Float64()
					Expect(out).To(BeNumerically(">=", -3))
					Expect(out).To(BeNumerically("<=", 7))
				}
			})

			It("clamps the integral term before the output", func() {
				// zKi = 10 * 0.125
				c := newController(1, 10, 0, pid.Direct, pid.NonAccumulating, -10, 10, 100)
				for i := 0; i < 50; i++ {
					expectValue(c.Run(n(0)), 10)
				}
				_, iTerm, _ := c.Terms()
				expectValue(iTerm, 10)

				// Overshoot: the integrator unwinds on the first tick.
				expectValue(c.Run(n(105)), -5+3.75)
				_, iTerm, _ = c.Terms()
				expectValue(iTerm, 3.75)
			})

			It("has no derivative on the first tick", func() {
				c := newController(0, 0, 100, pid.Direct, pid.NonAccumulating, -1000, 1000, 50)
				c.Run(n(-20))
				_, _, d := c.Terms()
				expectValue(d, 0)
			})

			It("takes the derivative on the measurement", func() {
				// zKd = 1 / 0.125
				c := newController(0, 0, 1, pid.Direct, pid.NonAccumulating, -100, 100, 10)
				c.Run(n(0))
				expectValue(c.Run(n(0.5)), -4)

				Expect(c.SetSetpoint(n(90))).To(Succeed())
				c.Run(n(0.5))
				_, _, d := c.Terms()
				expectValue(d, 0)
			})

			It("accumulates the output in velocity form", func() {
				// zKi = 2 * 0.125
				non := newController(1, 2, 0, pid.Direct, pid.NonAccumulating, -100, 100, 10)
				acc := newController(1, 2, 0, pid.Direct, pid.Accumulating, -100, 100, 10)

				expectValue(non.Run(n(4)), 7.5)
				expectValue(acc.Run(n(4)), 7.5)

				expectValue(non.Run(n(6)), 6.5)
				expectValue(acc.Run(n(6)), 7.5+6.5)
			})

			It("switches to velocity form through SetOutputMode", func() {
				c := newController(1, 0, 0, pid.Direct, pid.NonAccumulating, -100, 100, 10)
				expectValue(c.Run(n(0)), 10)
				Expect(c.SetOutputMode(pid.Accumulating)).To(Succeed())
				expectValue(c.Run(n(0)), 20)
			})

			It("saturates the run counter", func() {
				c := newController(1, 0, 0, pid.Direct, pid.NonAccumulating, -1, 1, 0)
				c.SetRunCount(math.MaxUint32 - 1)
				c.Run(n(0))
				c.Run(n(0))
				Expect(c.RunCount()).To(Equal(uint32(math.MaxUint32)))
			})
		})

		Describe("SetTunings", func() {
			It("scales integral and derivative gains by the sample period", func() {
				c := newController(1, 1, 1, pid.Direct, pid.NonAccumulating, -1, 1, 0)
				Expect(c.SetTunings(n(3), n(2), n(0.5))).To(Succeed())
				expectValue(c.Kp(), 3)
				expectValue(c.Ki(), 2)
				expectValue(c.Kd(), 0.5)
				expectValue(c.Zp(), 3)
				expectValue(c.Zi(), 0.25)
				expectValue(c.Zd(), 4)
			})

			It("ignores a call with any negative gain", func() {
				c := newController(3, 2, 1, pid.Reverse, pid.NonAccumulating, -1, 1, 0)
				kp, ki, kd := c.Kp(), c.Ki(), c.Kd()
				zp, zi, zd := c.Zp(), c.Zi(), c.Zd()

				Expect(c.SetTunings(n(-1), n(5), n(5))).To(MatchError(pid.ErrNegativeGain))
				Expect(c.SetTunings(n(5), n(5), n(-0.001))).To(MatchError(pid.ErrNegativeGain))

				Expect(c.Kp()).To(Equal(kp))
				Expect(c.Ki()).To(Equal(ki))
				Expect(c.Kd()).To(Equal(kd))
				Expect(c.Zp()).To(Equal(zp))
				Expect(c.Zi()).To(Equal(zi))
				Expect(c.Zd()).To(Equal(zd))
			})

			It("keeps actual gains positive in reverse", func() {
				c := newController(1, 1, 1, pid.Reverse, pid.NonAccumulating, -1, 1, 0)
				Expect(c.SetTunings(n(2), n(4), n(0.25))).To(Succeed())
				expectValue(c.Kp(), 2)
				expectValue(c.Zp(), -2)
				expectValue(c.Zi(), -0.5)
				expectValue(c.Zd(), -2)
			})
		})

		Describe("SetOutputLimits", func() {
			It("ignores min >= max", func() {
				c := newController(1, 0, 0, pid.Direct, pid.NonAccumulating, -2, 2, 0)
				Expect(c.SetOutputLimits(n(5), n(5))).To(MatchError(pid.ErrInvalidLimits))
				Expect(c.SetOutputLimits(n(6), n(5))).To(MatchError(pid.ErrInvalidLimits))
				lo, hi := c.OutputLimits()
				expectValue(lo, -2)
				expectValue(hi, 2)
			})

			It("applies new limits from the next Run", func() {
				c := newController(0, 8, 0, pid.Direct, pid.NonAccumulating, -10, 10, 10)
				c.Run(n(0))
				_, iTerm, _ := c.Terms()
				expectValue(iTerm, 10)

				Expect(c.SetOutputLimits(n(-1), n(1))).To(Succeed())
				_, iTerm, _ = c.Terms()
				expectValue(iTerm, 10)
				expectValue(c.Output(), 10)

				expectValue(c.Run(n(0)), 1)
				_, iTerm, _ = c.Terms()
				expectValue(iTerm, 1)
			})
		})

		Describe("SetControllerDirection", func() {
			It("mirrors the direct gains in reverse", func() {
				direct := newController(2, 4, 0.5, pid.Direct, pid.NonAccumulating, -10, 10, 1)
				reverse := newController(2, 4, 0.5, pid.Reverse, pid.NonAccumulating, -10, 10, 1)

				expectValue(reverse.Zp(), -direct.Zp().Float64())
				expectValue(reverse.Zi(), -direct.Zi().Float64())
				expectValue(reverse.Zd(), -direct.Zd().Float64())

				d := direct.Run(n(0)).Float64()
				r := reverse.Run(n(0)).Float64()
				Expect(d).To(BeNumerically(">", 0))
				expectValue(n(r), -d)
			})

			It("flips the scaled gains once per actual change", func() {
				c := newController(2, 4, 0.5, pid.Direct, pid.NonAccumulating, -10, 10, 1)
				zp := c.Zp().Float64()

				Expect(c.SetControllerDirection(pid.Reverse)).To(Succeed())
				expectValue(c.Zp(), -zp)
				Expect(c.Direction()).To(Equal(pid.Reverse))

				Expect(c.SetControllerDirection(pid.Reverse)).To(Succeed())
				expectValue(c.Zp(), -zp)

				Expect(c.SetControllerDirection(pid.Direct)).To(Succeed())
				expectValue(c.Zp(), zp)
				expectValue(c.Kp(), 2)
			})
		})

		Describe("unknown direction and output mode values", func() {
			It("rejects them in Init and stays uninitialized", func() {
				c := &pid.Controller[T]{}
				err := c.Init(n(1), n(0), n(0), pid.Direction(7), pid.NonAccumulating, period, n(-1), n(1), n(0))
				Expect(err).To(MatchError(pid.ErrUnknownDirection))
				Expect(c.Initialized()).To(BeFalse())

				err = c.Init(n(1), n(0), n(0), pid.Direct, pid.OutputMode(-1), period, n(-1), n(1), n(0))
				Expect(err).To(MatchError(pid.ErrUnknownOutputMode))
				Expect(c.Initialized()).To(BeFalse())
			})

			It("keeps the gain signs when a setter gets an unknown direction", func() {
				c := newController(2, 0, 0, pid.Direct, pid.NonAccumulating, -10, 10, 1)

				Expect(c.SetControllerDirection(pid.Direction(7))).To(MatchError(pid.ErrUnknownDirection))
				Expect(c.Direction()).To(Equal(pid.Direct))
				expectValue(c.Zp(), 2)

				Expect(c.SetTunings(n(2), n(0), n(0))).To(Succeed())
				expectValue(c.Zp(), 2)
			})

			It("keeps the output mode when a setter gets an unknown mode", func() {
				c := newController(1, 0, 0, pid.Direct, pid.Accumulating, -10, 10, 1)
				Expect(c.SetOutputMode(pid.OutputMode(3))).To(MatchError(pid.ErrUnknownOutputMode))
				Expect(c.OutputMode()).To(Equal(pid.Accumulating))
			})
		})

		Describe("SetSamplePeriod", func() {
			It("rescales the time-scaled gains", func() {
				c := newController(1, 2, 1, pid.Direct, pid.NonAccumulating, -1, 1, 0)
				expectValue(c.Zi(), 0.25)
				expectValue(c.Zd(), 8)

				Expect(c.SetSamplePeriod(2 * period)).To(Succeed())
				expectValue(c.Zi(), 0.5)
				expectValue(c.Zd(), 4)
				Expect(c.SamplePeriod()).To(Equal(2 * period))

				// Same result as tuning from scratch at the new rate.
				Expect(c.SetTunings(n(1), n(2), n(1))).To(Succeed())
				expectValue(c.Zi(), 0.5)
				expectValue(c.Zd(), 4)
			})

			It("ignores a non-positive period", func() {
				c := newController(1, 2, 1, pid.Direct, pid.NonAccumulating, -1, 1, 0)
				Expect(c.SetSamplePeriod(0)).To(MatchError(pid.ErrInvalidSamplePeriod))
				Expect(c.SetSamplePeriod(-time.Second)).To(MatchError(pid.ErrInvalidSamplePeriod))
				Expect(c.SamplePeriod()).To(Equal(period))
				expectValue(c.Zi(), 0.25)
			})
		})
	})
}
