package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultOuterMargin is how far beyond the envelope's last-axis maximum
// OuterPoint places the outer signature.
const DefaultOuterMargin = 0.1

// MaxRegions caps the number of cells GenerateRegions will produce.
const MaxRegions = 1 << 24

// GenerateRegions returns every cell formed by taking one consecutive
// breakpoint interval per axis. For lists of lengths L1..LD the result has
// prod(Li-1) cells, ordered with the first axis varying slowest.
//
// Each list must hold at least two finite, strictly increasing values.
func GenerateRegions(breakpoints ...[]float64) ([]Cell, error) {
	if len(breakpoints) == 0 {
		return nil, fmt.Errorf("no breakpoint lists: %w", ErrInvalidInput)
	}
	total := 1
	for axis, bp := range breakpoints {
		if err := checkBreakpoints(axis, bp); err != nil {
			return nil, err
		}
		n := len(bp) - 1
		if total > MaxRegions/n {
			return nil, fmt.Errorf("breakpoints yield more than %d regions at axis %d: %w", MaxRegions, axis, ErrInvalidInput)
		}
		total *= n
	}

	d := len(breakpoints)
	cells := make([]Cell, 0, total)
	// idx[a] is the upper breakpoint index of the current interval on axis a.
	idx := make([]int, d)
	for a := range idx {
		idx[a] = 1
	}
	for {
		min := make([]float64, d)
		max := make([]float64, d)
		for a, bp := range breakpoints {
			min[a] = bp[idx[a]-1]
			max[a] = bp[idx[a]]
		}
		cells = append(cells, mustCell(min, max))

		// Odometer increment, last axis fastest.
		a := d - 1
		for ; a >= 0; a-- {
			idx[a]++
			if idx[a] < len(breakpoints[a]) {
				break
			}
			idx[a] = 1
		}
		if a < 0 {
			return cells, nil
		}
	}
}

func checkBreakpoints(axis int, bp []float64) error {
	if len(bp) < 2 {
		return fmt.Errorf("axis %d has %d breakpoints, need at least 2: %w", axis, len(bp), ErrInvalidInput)
	}
	for i, v := range bp {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("axis %d breakpoint %d is not finite: %w", axis, i, ErrInvalidInput)
		}
		if i > 0 && v <= bp[i-1] {
			return fmt.Errorf("axis %d breakpoints not strictly increasing at %d (%g after %g): %w",
				axis, i, v, bp[i-1], ErrInvalidInput)
		}
	}
	return nil
}

// Envelope returns the smallest bounded cell containing every cell in
// cells. Unbounded cells are rejected.
func Envelope(cells []Cell) (Cell, error) {
	if len(cells) == 0 {
		return Cell{}, fmt.Errorf("envelope of empty partition: %w", ErrInvalidInput)
	}
	d := cells[0].Dim()
	for i, c := range cells {
		if c.IsUnbounded() {
			return Cell{}, fmt.Errorf("envelope: cell %d is unbounded: %w", i, ErrInvalidInput)
		}
		if c.Dim() != d {
			return Cell{}, fmt.Errorf("envelope: cell %d has dimension %d, want %d: %w", i, c.Dim(), d, ErrInvalidInput)
		}
	}
	min := make([]float64, d)
	max := make([]float64, d)
	col := make([]float64, len(cells))
	for a := 0; a < d; a++ {
		for i, c := range cells {
			col[i] = c.min[a]
		}
		min[a] = floats.Min(col)
		for i, c := range cells {
			col[i] = c.max[a]
		}
		max[a] = floats.Max(col)
	}
	return mustCell(min, max), nil
}

// OuterPoint returns a representative point for the unbounded cell: the
// envelope centroid on every axis except the last, and margin beyond the
// envelope maximum on the last axis.
//
// Its last coordinate always strictly exceeds every cell's maximum on that
// axis. Nothing checks it against cells added later.
func OuterPoint(cells []Cell, margin float64) (Point, error) {
	if !(margin > 0) || math.IsInf(margin, 0) {
		return nil, fmt.Errorf("outer margin must be positive and finite, got %g: %w", margin, ErrInvalidInput)
	}
	env, err := Envelope(cells)
	if err != nil {
		return nil, err
	}
	p := midpoint(env)
	last := env.Dim() - 1
	p[last] = env.max[last] + margin
	if p[last] <= env.max[last] {
		// margin was absorbed by rounding at this magnitude
		p[last] = math.Nextafter(env.max[last], math.Inf(1))
	}
	return p, nil
}
