// Package mass estimates per-cell probability mass for a grid and drives
// the estimate/refine loop.
//
// It is the boundary to the probability-mass computation that feeds
// contribution-driven refinement; closed-form mixture integration is out
// of scope and can be plugged in through Estimator.
package mass

import (
	"context"
	"fmt"

	"github.com/banshee-data/massgrid/internal/grid"
)

// Estimator computes one contribution per grid cell, in grid order.
type Estimator interface {
	Estimate(ctx context.Context, g *grid.Grid) ([]float64, error)
}

// EstimatorFunc adapts a function to Estimator.
type EstimatorFunc func(ctx context.Context, g *grid.Grid) ([]float64, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(ctx context.Context, g *grid.Grid) ([]float64, error) {
	return f(ctx, g)
}

// Empirical estimates cell mass as the fraction of Samples that land in
// each cell. Each sample is credited to the first bounded cell containing
// it, so samples on shared faces are not counted twice; samples outside
// every bounded cell are credited to the unbounded cell when present.
type Empirical struct {
	Samples []grid.Point
}

// Estimate implements Estimator. The result sums to 1 when the grid has an
// unbounded cell, and to the covered fraction otherwise.
func (e Empirical) Estimate(ctx context.Context, g *grid.Grid) ([]float64, error) {
	out := make([]float64, g.Len())
	if len(e.Samples) == 0 {
		return out, nil
	}
	cells := g.Cells()
	outer := -1
	if g.HasUnbounded() {
		outer = len(cells) - 1
	}

	counts := make([]int, len(cells))
	for i, p := range e.Samples {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(p) != g.Dim() {
			return nil, fmt.Errorf("sample %d has dimension %d, grid has %d: %w", i, len(p), g.Dim(), grid.ErrInvalidInput)
		}
		hit := false
		for j, c := range cells {
			if j == outer {
				break
			}
			if grid.ContainsPoint(c, p) {
				counts[j]++
				hit = true
				break
			}
		}
		if !hit && outer >= 0 {
			counts[outer]++
		}
	}

	n := float64(len(e.Samples))
	for i, c := range counts {
		out[i] = float64(c) / n
	}
	return out, nil
}

// HittingProbability is the fraction of samples inside the barrier cell.
func HittingProbability(samples []grid.Point, barrier grid.Cell) float64 {
	return grid.SampleFraction(samples, barrier)
}

// SignatureMass is the piecewise-constant estimate of the mass inside
// barrier: the summed contributions of the cells whose signature lies in
// it.
func SignatureMass(g *grid.Grid, barrier grid.Cell) float64 {
	total := 0.0
	for _, e := range g.Entries() {
		if grid.ContainsPoint(barrier, e.Signature) {
			total += e.Contribution
		}
	}
	return total
}
