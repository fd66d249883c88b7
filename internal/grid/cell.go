package grid

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Point is a location in D-dimensional state space.
type Point []float64

// Dim returns the number of coordinates in p.
func (p Point) Dim() int { return len(p) }

type cellKind uint8

const (
	kindBounded cellKind = iota
	kindUnbounded
)

// Cell is an axis-aligned hyper-rectangle given by its min and max corners.
//
// A Cell is either bounded (all coordinates finite) or the unbounded
// complement cell, which stands for everything outside the bounded
// partition. The variant is carried explicitly; code never infers it from
// infinite coordinates.
type Cell struct {
	kind cellKind
	min  []float64
	max  []float64
}

// NewCell returns a bounded cell with the given corners. Both corners must
// have the same non-zero dimension, be finite and satisfy min <= max on
// every axis. The corners are copied.
func NewCell(min, max []float64) (Cell, error) {
	if err := checkCorners(min, max); err != nil {
		return Cell{}, err
	}
	for i := range min {
		if math.IsInf(min[i], 0) || math.IsInf(max[i], 0) {
			return Cell{}, fmt.Errorf("bounded cell has infinite coordinate on axis %d: %w", i, ErrInvalidInput)
		}
	}
	return Cell{kind: kindBounded, min: clone(min), max: clone(max)}, nil
}

// NewUnboundedCell returns the unbounded complement cell. Its corners
// describe the envelope the complement is reported with and may contain
// +/-Inf; min <= max must still hold.
func NewUnboundedCell(min, max []float64) (Cell, error) {
	if err := checkCorners(min, max); err != nil {
		return Cell{}, err
	}
	return Cell{kind: kindUnbounded, min: clone(min), max: clone(max)}, nil
}

// FullSpace returns the unbounded cell covering all of R^dim.
func FullSpace(dim int) Cell {
	min := make([]float64, dim)
	max := make([]float64, dim)
	for i := range min {
		min[i] = math.Inf(-1)
		max[i] = math.Inf(1)
	}
	return Cell{kind: kindUnbounded, min: min, max: max}
}

// mustCell is used internally where the corners are known to be valid.
func mustCell(min, max []float64) Cell {
	return Cell{kind: kindBounded, min: min, max: max}
}

func checkCorners(min, max []float64) error {
	if len(min) == 0 {
		return fmt.Errorf("cell has zero dimensions: %w", ErrInvalidInput)
	}
	if len(min) != len(max) {
		return fmt.Errorf("corner dimensions differ (%d vs %d): %w", len(min), len(max), ErrInvalidInput)
	}
	for i := range min {
		if math.IsNaN(min[i]) || math.IsNaN(max[i]) {
			return fmt.Errorf("NaN coordinate on axis %d: %w", i, ErrInvalidInput)
		}
		if min[i] > max[i] {
			return fmt.Errorf("min %g > max %g on axis %d: %w", min[i], max[i], i, ErrInvalidInput)
		}
	}
	return nil
}

// IsUnbounded reports whether c is the unbounded complement cell.
func (c Cell) IsUnbounded() bool { return c.kind == kindUnbounded }

// Dim returns the dimension of c.
func (c Cell) Dim() int { return len(c.min) }

// Min returns a copy of the min corner.
func (c Cell) Min() Point { return clone(c.min) }

// Max returns a copy of the max corner.
func (c Cell) Max() Point { return clone(c.max) }

// Lo returns the min coordinate on axis i.
func (c Cell) Lo(i int) float64 { return c.min[i] }

// Hi returns the max coordinate on axis i.
func (c Cell) Hi(i int) float64 { return c.max[i] }

// Volume returns the product of the side lengths. It is +Inf for cells
// with infinite extent.
func (c Cell) Volume() float64 {
	v := 1.0
	for i := range c.min {
		v *= c.max[i] - c.min[i]
	}
	return v
}

// IsDegenerate reports whether some side of c has zero length.
func (c Cell) IsDegenerate() bool {
	for i := range c.min {
		if c.max[i] == c.min[i] {
			return true
		}
	}
	return false
}

// Equal reports whether c and o are the same variant with identical corners.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind || len(c.min) != len(o.min) {
		return false
	}
	for i := range c.min {
		if c.min[i] != o.min[i] || c.max[i] != o.max[i] {
			return false
		}
	}
	return true
}

// Matrix returns the 2xD matrix form of c: row 0 is the min corner and
// row 1 the max corner.
func (c Cell) Matrix() *mat.Dense {
	d := len(c.min)
	data := make([]float64, 0, 2*d)
	data = append(data, c.min...)
	data = append(data, c.max...)
	return mat.NewDense(2, d, data)
}

// CellFromMatrix builds a cell from its 2xD matrix form. A matrix with any
// infinite entry yields the unbounded cell.
func CellFromMatrix(m mat.Matrix) (Cell, error) {
	r, d := m.Dims()
	if r != 2 {
		return Cell{}, fmt.Errorf("cell matrix has %d rows, want 2: %w", r, ErrInvalidInput)
	}
	min := mat.Row(nil, 0, m)
	max := mat.Row(nil, 1, m)
	for i := 0; i < d; i++ {
		if math.IsInf(min[i], 0) || math.IsInf(max[i], 0) {
			return NewUnboundedCell(min, max)
		}
	}
	return NewCell(min, max)
}

func (c Cell) String() string {
	var b strings.Builder
	if c.IsUnbounded() {
		b.WriteString("unbounded")
	}
	b.WriteString("[")
	for i := range c.min {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%g:%g", c.min[i], c.max[i])
	}
	b.WriteString("]")
	return b.String()
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
