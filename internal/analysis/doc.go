// Package analysis characterizes closed-loop responses.
//
//   - [StepResponse]: rise time, overshoot, settling time and steady-state
//     error of a setpoint step
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of the
//     error signal, used to spot limit cycles caused by aggressive tuning
//     or output saturation
//
// # Limit Cycle Detection
//
// A sustained oscillation shows up as a strong non-DC peak:
//
//	freq, power := analysis.DominantFrequency(errSeries, 1/dt)
//	if power > threshold {
//	    // loop is ringing at freq Hz
//	}
package analysis
