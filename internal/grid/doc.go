// Package grid owns the partition of a bounded state space into
// axis-aligned cells and the representative point (signature) of each cell.
//
// Responsibilities: Cartesian region generation from per-axis breakpoints,
// signature placement, the unbounded complement cell, sample-driven quadtree
// refinement and contribution-driven refinement of an existing grid.
// Key types: Cell, Entry, Grid, QuadtreeParams.
//
// Dependency rule: grid performs no I/O and never logs. Probability mass
// estimation lives in internal/mass; persistence in internal/store.
package grid
