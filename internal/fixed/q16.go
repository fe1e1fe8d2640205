// Package fixed provides a saturating Q16.16 fixed-point number for
// controllers running without an FPU.
package fixed

import (
	"math"
	"strconv"
)

const (
	FracBits = 16
	one      = 1 << FracBits
)

// Q16 is a signed Q16.16 fixed-point value: 16 integer bits, 16 fraction
// bits, resolution 1/65536. Arithmetic saturates at Max and Min instead of
// wrapping.
type Q16 int32

const (
	Max Q16 = math.MaxInt32
	Min Q16 = math.MinInt32

	One Q16 = one
)

// Resolution is the smallest representable step.
const Resolution = 1.0 / one

// FromFloat converts f, rounding to the nearest step. NaN maps to zero and
// out-of-range values saturate.
func FromFloat(f float64) Q16 {
	if math.IsNaN(f) {
		return 0
	}
	v := math.Round(f * one)
	if v >= math.MaxInt32 {
		return Max
	}
	if v <= math.MinInt32 {
		return Min
	}
	return Q16(v)
}

// FromInt converts an integer, saturating when out of range.
func FromInt(n int) Q16 {
	return saturate(int64(n) << FracBits)
}

func saturate(v int64) Q16 {
	if v > math.MaxInt32 {
		return Max
	}
	if v < math.MinInt32 {
		return Min
	}
	return Q16(v)
}

func (q Q16) Add(o Q16) Q16 { return saturate(int64(q) + int64(o)) }
func (q Q16) Sub(o Q16) Q16 { return saturate(int64(q) - int64(o)) }
func (q Q16) Neg() Q16      { return saturate(-int64(q)) }

// Mul rounds half up.
func (q Q16) Mul(o Q16) Q16 {
	return saturate((int64(q)*int64(o) + one/2) >> FracBits)
}

// Div truncates toward zero. Division by zero saturates toward the sign
// of the dividend.
func (q Q16) Div(o Q16) Q16 {
	if o == 0 {
		if q < 0 {
			return Min
		}
		return Max
	}
	return saturate((int64(q) << FracBits) / int64(o))
}

func (q Q16) Less(o Q16) bool { return q < o }

func (Q16) FromFloat(f float64) Q16 { return FromFloat(f) }

func (q Q16) Float64() float64 { return float64(q) / one }

// Raw returns the underlying two's complement representation.
func (q Q16) Raw() int32 { return int32(q) }

func (q Q16) String() string {
	return strconv.FormatFloat(q.Float64(), 'f', -1, 64)
}
