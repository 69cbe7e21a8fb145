// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Metric]: per-step scalar accumulator
//   - [Observer]: per-step telemetry sink
//
// # Example
//
//	dyn := quad.New()
//	integ := integrators.NewRK4()
//	x := integ.Step(dyn, x0, u, t, dt)
//
// # Thread Safety
//
// None of the types here are safe for concurrent mutation. The simulation
// loop built on top of them is single-threaded by design; see the sim
// package for the parallel-runs escape hatch.
package dynamo
