// Package plant provides process models for closed-loop simulation.
//
// Each model implements [dynamo.Plant], defining the differential
// equations of the process and the quantity a sensor would measure:
//
//   - [Motor]: DC motor speed driven by armature voltage
//   - [Thermal]: heated or cooled body losing heat to ambient
//   - [SpringMass]: mass-spring-damper position driven by a force
//
// All models implement [dynamo.Configurable] so parameters can be changed
// while a live simulation runs.
package plant
