package integrators

import "github.com/san-kum/pidlab/internal/dynamo"

// Euler is the explicit forward Euler method. Cheap and first order; use it
// only with a step well below the plant's fastest time constant.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*dx[i]
	}
	return next
}
