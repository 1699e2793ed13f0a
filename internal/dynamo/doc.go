// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of autonomous ordinary differential equations (dX/dt = f(X)):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE right-hand sides
//   - [Integrator]: numerical stepper interface
//   - [Simulator]: orchestrates a single simulation run
//   - [Ensemble]: runs many independent simulations concurrently
//
// # Example
//
//	sys := model.NewSystem(params)
//	integ := integrators.NewRK4()
//	sim := dynamo.New(sys, integ)
//	result, _ := sim.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel simulations,
// use the [Ensemble] type, giving every job its own System value.
package dynamo
