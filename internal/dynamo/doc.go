// Package dynamo provides the core primitives shared by the layout engine.
//
// The package defines the physical record every graph node carries during a
// layout run and the interfaces the simulation driver is assembled from:
//
//   - [Body]: position, velocity, accumulated force and mass of one node
//   - [Config]: physical parameters of a run (springs, repulsion, drag, θ)
//   - [Integrator]: advances bodies by one time step
//   - [Metric] and [Observer]: per-step measurement and progress hooks
//
// # Example
//
//	cfg := dynamo.DefaultConfig()
//	cfg.Repulsion = -2
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Bodies are owned by a single simulator. Nothing in this package holds
// process-wide mutable state, so independent simulations may run side by side.
package dynamo
