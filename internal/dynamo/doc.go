// Package dynamo provides the closed-loop simulation primitives used to
// exercise controllers against plant models.
//
// The package defines the interfaces a simulation is assembled from:
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Plant]: a System with a measured output
//   - [Integrator]: numerical integrator interface
//   - [Controller]: feedback controller fed with the measured output
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	dyn := plant.NewMotor()
//	integ := integrators.NewRK4()
//	sim := dynamo.New(dyn, integ, loop)
//	result, _ := sim.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel simulations,
// use the [Ensemble] type, which builds one simulator per run.
package dynamo
