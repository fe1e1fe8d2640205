// Package pid implements a discrete-time PID controller for fixed-rate
// control loops.
//
// The controller is generic over its numeric representation through the
// [Number] contract, so the same algorithm runs on [Float] and on the
// saturating fixed-point type in package fixed:
//
//	c, err := pid.New(pid.Config[pid.Float]{
//	    Kp: 2, Ki: 0.5, Kd: 0.1,
//	    SamplePeriod: 10 * time.Millisecond,
//	    OutMin: -12, OutMax: 12,
//	    Setpoint: 1500,
//	})
//	// once per sample period:
//	u := c.Run(measured)
//
// Integral and derivative gains are pre-scaled by the sample period, the
// derivative is taken on the measurement rather than the error, and the
// integral term is clamped to the output limits separately from the final
// output.
//
// Invalid configuration is never applied: setters return an error and the
// previous configuration stays in effect. The return value can be ignored
// by loops that prefer to keep running.
//
// # Thread Safety
//
// Controller instances are NOT safe for concurrent use. Run and the setters
// must be called from a single goroutine or behind external locking.
package pid
