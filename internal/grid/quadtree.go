package grid

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// QuadtreeParams controls sample-driven refinement. A cell keeps splitting
// while more than MinProportion of the samples fall inside it and its
// diagonal is longer than MinSize.
type QuadtreeParams struct {
	MinProportion float64
	MinSize       float64
}

// Validate checks that MinProportion is in (0, 1] and MinSize is positive
// and finite.
func (p QuadtreeParams) Validate() error {
	if !(p.MinProportion > 0) || p.MinProportion > 1 {
		return fmt.Errorf("MinProportion must be in (0, 1], got %g: %w", p.MinProportion, ErrInvalidInput)
	}
	if !(p.MinSize > 0) || math.IsInf(p.MinSize, 0) {
		return fmt.Errorf("MinSize must be positive and finite, got %g: %w", p.MinSize, ErrInvalidInput)
	}
	return nil
}

// ShouldSplit reports whether c is still a candidate for subdivision. Both
// comparisons are strict, so a cell exactly at either threshold is a leaf.
func ShouldSplit(c Cell, samples []Point, p QuadtreeParams) bool {
	return SampleFraction(samples, c) > p.MinProportion && DiagonalExtent(c) > p.MinSize
}

// Quadrants bisects a bounded 2-D cell at its midpoint on both axes. The
// children are returned lower-left, lower-right, upper-left, upper-right and
// their union is exactly c. A cell too narrow for its midpoint to fall
// strictly inside on both axes yields ErrDegenerateGeometry.
func Quadrants(c Cell) ([4]Cell, error) {
	if err := checkSplittable(c); err != nil {
		return [4]Cell{}, err
	}
	if !bisectable(c) {
		return [4]Cell{}, fmt.Errorf("cell %s is below float resolution: %w", c, ErrDegenerateGeometry)
	}
	return quadrants(c), nil
}

func checkSplittable(c Cell) error {
	if c.IsUnbounded() {
		return fmt.Errorf("cannot split unbounded cell: %w", ErrInvalidInput)
	}
	if c.Dim() != 2 {
		return fmt.Errorf("quadrant split needs a 2-D cell, got %d-D: %w", c.Dim(), ErrInvalidInput)
	}
	if c.IsDegenerate() {
		return fmt.Errorf("cannot split zero-area cell %s: %w", c, ErrDegenerateGeometry)
	}
	return nil
}

// bisectable reports whether both midpoints of a 2-D cell lie strictly
// inside their intervals. Sides only an ULP or two wide round the midpoint
// onto an endpoint, and splitting them would reproduce the parent.
func bisectable(c Cell) bool {
	mx := (c.min[0] + c.max[0]) / 2
	my := (c.min[1] + c.max[1]) / 2
	return c.min[0] < mx && mx < c.max[0] && c.min[1] < my && my < c.max[1]
}

func quadrants(c Cell) [4]Cell {
	x0, y0 := c.min[0], c.min[1]
	x1, y1 := c.max[0], c.max[1]
	mx := (x0 + x1) / 2
	my := (y0 + y1) / 2
	return [4]Cell{
		mustCell([]float64{x0, y0}, []float64{mx, my}),
		mustCell([]float64{mx, y0}, []float64{x1, my}),
		mustCell([]float64{x0, my}, []float64{mx, y1}),
		mustCell([]float64{mx, my}, []float64{x1, y1}),
	}
}

// Refine grows a quadtree from region, splitting every cell for which
// ShouldSplit holds, and returns the leaves in depth-first order
// (lower-left, lower-right, upper-left, upper-right at each level). A
// region that does not split is returned alone. A cell that ShouldSplit
// but is too narrow to bisect in floating point is kept as a leaf.
//
// The traversal uses an explicit stack rather than recursion.
func Refine(region Cell, samples []Point, p QuadtreeParams) ([]Cell, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkSplittable(region); err != nil {
		return nil, err
	}

	var leaves []Cell
	stack := []Cell{region}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !ShouldSplit(c, samples, p) || !bisectable(c) {
			leaves = append(leaves, c)
			continue
		}
		q := quadrants(c)
		// Push in reverse so the lower-left child is processed first.
		for i := len(q) - 1; i >= 0; i-- {
			stack = append(stack, q[i])
		}
	}
	return leaves, nil
}

// RefineAll runs Refine on each region concurrently, with at most workers
// goroutines (workers <= 0 means one per region). Leaves are concatenated
// in region order regardless of completion order.
func RefineAll(ctx context.Context, regions []Cell, samples []Point, p QuadtreeParams, workers int) ([]Cell, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	results := make([][]Cell, len(regions))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, r := range regions {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			leaves, err := Refine(r, samples, p)
			if err != nil {
				return fmt.Errorf("region %d: %w", i, err)
			}
			results[i] = leaves
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Cell
	for _, leaves := range results {
		out = append(out, leaves...)
	}
	return out, nil
}
