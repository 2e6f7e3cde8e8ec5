// Package physics computes the forces acting on layout bodies.
//
// Three terms are summed into [dynamo.Body].Force every step:
//
//   - springs along graph links, pulling each pair toward the link's rest
//     length
//   - pairwise repulsion between all bodies, approximated with a Barnes–Hut
//     [quadtree.Tree]
//   - an optional centering pull toward the mass centroid
//
// Each term also adds its force gradient magnitude to
// [dynamo.Body].Stiffness, which the integrator uses to bound the step.
//
// Usage:
//
//	acc := physics.NewAccumulator(cfg, compute.NewBackend(cfg.Workers))
//	springs := physics.Springs(g, cfg)
//	tree := acc.Build(bodies)
//	if err := acc.Accumulate(bodies, springs, tree); err != nil {
//	    return err
//	}
package physics
