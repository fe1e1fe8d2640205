package pid

// Number is the arithmetic and ordering a Controller needs from its numeric
// representation. Both Float and fixed.Q16 satisfy it.
type Number[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T
	Less(T) bool
	// FromFloat builds a value of the same representation from a float64.
	// The receiver is ignored.
	FromFloat(float64) T
	Float64() float64
}

// Float is the native floating-point backend.
type Float float64

func (f Float) Add(o Float) Float       { return f + o }
func (f Float) Sub(o Float) Float       { return f - o }
func (f Float) Mul(o Float) Float       { return f * o }
func (f Float) Div(o Float) Float       { return f / o }
func (f Float) Neg() Float              { return -f }
func (f Float) Less(o Float) bool       { return f < o }
func (Float) FromFloat(v float64) Float { return Float(v) }
func (f Float) Float64() float64        { return float64(f) }

func num[T Number[T]](v float64) T {
	var zero T
	return zero.FromFloat(v)
}

func clamp[T Number[T]](v, lo, hi T) T {
	if hi.Less(v) {
		return hi
	}
	if v.Less(lo) {
		return lo
	}
	return v
}
