// Package compute evaluates the repulsion pass of a layout step.
//
// The quadtree is read-only while a pass runs, so bodies can be evaluated
// concurrently. Every body owns its output slots, which keeps the result
// identical regardless of how many workers run:
//
//	backend := compute.NewBackend(cfg.Workers)
//	err := backend.Repulsion(tree, forces, stiffness, compute.Repulsion{
//		Theta:       cfg.Theta,
//		Coefficient: cfg.Repulsion,
//		MinDistance: cfg.MinDistance,
//	})
package compute
