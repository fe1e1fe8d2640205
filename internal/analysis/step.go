package analysis

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptySeries    = errors.New("empty series")
	ErrLengthMismatch = errors.New("series length mismatch")
	ErrNoStep         = errors.New("setpoint equals initial value")
)

const (
	riseLow  = 0.1
	riseHigh = 0.9
)

// StepInfo summarizes the response to a setpoint step. Times are relative
// to the first sample.
type StepInfo struct {
	RiseTime         float64 `json:"rise_time"`
	Rose             bool    `json:"rose"`
	Overshoot        float64 `json:"overshoot_pct"`
	Peak             float64 `json:"peak"`
	PeakTime         float64 `json:"peak_time"`
	SettlingTime     float64 `json:"settling_time"`
	Settled          bool    `json:"settled"`
	SteadyStateError float64 `json:"steady_state_error"`
}

// StepResponse analyzes y(t) after a step from initial to setpoint. band
// is the settling tolerance as a fraction of the step size, e.g. 0.02.
func StepResponse(times, y []float64, initial, setpoint, band float64) (StepInfo, error) {
	var info StepInfo
	if len(y) == 0 {
		return info, ErrEmptySeries
	}
	if len(times) != len(y) {
		return info, fmt.Errorf("%d times, %d values: %w", len(times), len(y), ErrLengthMismatch)
	}
	amplitude := setpoint - initial
	if amplitude == 0 {
		return info, ErrNoStep
	}

	t0 := times[0]
	tLow, tHigh := -1.0, -1.0
	peakNorm := math.Inf(-1)
	lastOutside := -1
	tolerance := band * math.Abs(amplitude)

	for i, v := range y {
		r := (v - initial) / amplitude
		if tLow < 0 && r >= riseLow {
			tLow = times[i]
		}
		if tHigh < 0 && r >= riseHigh {
			tHigh = times[i]
		}
		if r > peakNorm {
			peakNorm = r
			info.Peak = v
			info.PeakTime = times[i] - t0
		}
		if math.Abs(v-setpoint) > tolerance {
			lastOutside = i
		}
	}

	if tHigh >= 0 {
		info.Rose = true
		info.RiseTime = tHigh - tLow
	}
	info.Overshoot = math.Max(0, peakNorm-1) * 100

	switch {
	case lastOutside == len(y)-1:
		info.Settled = false
	case lastOutside < 0:
		info.Settled = true
	default:
		info.Settled = true
		info.SettlingTime = times[lastOutside+1] - t0
	}

	info.SteadyStateError = setpoint - y[len(y)-1]
	return info, nil
}
