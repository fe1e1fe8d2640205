package integrators

import "github.com/san-kum/pidlab/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method. The control input is
// held constant across the step, matching the zero-order hold of a sampled
// controller.
type RK4 struct {
	k      [4]dynamo.State
	interm dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.interm) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.interm = make(dynamo.State, n)
}

// stage evaluates the derivative at x + h*prev into dst.
func (r *RK4) stage(dyn dynamo.System, dst, x, prev dynamo.State, u dynamo.Control, t, h float64) {
	for i := range x {
		r.interm[i] = x[i] + h*prev[i]
	}
	copy(dst, dyn.Derive(r.interm, u, t))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))
	half := dt / 2

	copy(r.k[0], dyn.Derive(x, u, t))
	r.stage(dyn, r.k[1], x, r.k[0], u, t+half, half)
	r.stage(dyn, r.k[2], x, r.k[1], u, t+half, half)
	r.stage(dyn, r.k[3], x, r.k[2], u, t+dt, dt)

	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt/6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return next
}
