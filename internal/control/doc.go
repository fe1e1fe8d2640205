// Package control connects controllers to the simulator.
//
// Controllers implement the [dynamo.Controller] interface to compute
// plant inputs from the measured output:
//
//   - [Loop]: a sampled [pid.Controller] behind a zero-order hold
//   - [Manual]: a fixed output, for open-loop step tests
//   - [None]: zero control
//
// # Usage
//
//	loop, err := control.New[pid.Float](control.DefaultTuning(), log)
//	if err != nil {
//		return err
//	}
//	sim := dynamo.New(plant, integrators.NewRK4(), loop)
//
// Loop and Manual implement [dynamo.Configurable] for live tuning.
package control
