package grid

import (
	"fmt"
	"math"
)

// Entry is one cell of a grid together with its signature and the latest
// externally computed contribution.
type Entry struct {
	Cell         Cell
	Signature    Point
	Contribution float64
}

// Grid is an ordered partition. Bounded entries tile the generated domain
// without overlap; at most one unbounded entry may follow them.
//
// Operations on a Grid return a new Grid and leave the receiver unchanged.
type Grid struct {
	entries []Entry
}

// NewGrid assembles a grid from index-aligned cells and signatures.
func NewGrid(cells []Cell, signatures []Point) (*Grid, error) {
	if len(cells) != len(signatures) {
		return nil, fmt.Errorf("%d cells but %d signatures: %w", len(cells), len(signatures), ErrInvalidInput)
	}
	entries := make([]Entry, len(cells))
	for i := range cells {
		entries[i] = Entry{Cell: cells[i], Signature: clone(signatures[i])}
	}
	g := &Grid{entries: entries}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromEntries builds a grid from prepared entries and validates it.
func FromEntries(entries []Entry) (*Grid, error) {
	g := &Grid{entries: append([]Entry(nil), entries...)}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Len returns the number of cells, including the unbounded cell.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Dim returns the dimension of the grid's cells, or 0 for an empty grid.
func (g *Grid) Dim() int {
	if g.Len() == 0 {
		return 0
	}
	return g.entries[0].Cell.Dim()
}

// Entry returns the i-th entry.
func (g *Grid) Entry(i int) Entry { return g.entries[i] }

// Entries returns a copy of the entries in order.
func (g *Grid) Entries() []Entry {
	if g == nil {
		return nil
	}
	return append([]Entry(nil), g.entries...)
}

// Cells returns the cells in grid order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, g.Len())
	for i, e := range g.Entries() {
		out[i] = e.Cell
	}
	return out
}

// Signatures returns the signatures in grid order.
func (g *Grid) Signatures() []Point {
	out := make([]Point, g.Len())
	for i, e := range g.Entries() {
		out[i] = clone(e.Signature)
	}
	return out
}

// Contributions returns the contributions in grid order.
func (g *Grid) Contributions() []float64 {
	out := make([]float64, g.Len())
	for i, e := range g.Entries() {
		out[i] = e.Contribution
	}
	return out
}

// HasUnbounded reports whether the grid carries the unbounded cell.
func (g *Grid) HasUnbounded() bool {
	n := g.Len()
	return n > 0 && g.entries[n-1].Cell.IsUnbounded()
}

// Bounded returns the bounded cells only.
func (g *Grid) Bounded() []Cell {
	out := make([]Cell, 0, g.Len())
	for _, e := range g.Entries() {
		if !e.Cell.IsUnbounded() {
			out = append(out, e.Cell)
		}
	}
	return out
}

// WithContributions returns a copy of g whose entries carry contributions,
// which must have one value per cell.
func (g *Grid) WithContributions(contributions []float64) (*Grid, error) {
	if len(contributions) != g.Len() {
		return nil, fmt.Errorf("%d contributions for %d cells: %w", len(contributions), g.Len(), ErrInvalidInput)
	}
	entries := g.Entries()
	for i := range entries {
		entries[i].Contribution = contributions[i]
	}
	return &Grid{entries: entries}, nil
}

// Validate checks the structural invariants of g: a common dimension, at
// most one unbounded cell placed last, signatures of matching dimension and
// every bounded signature inside its cell.
func (g *Grid) Validate() error {
	d := g.Dim()
	for i, e := range g.Entries() {
		if e.Cell.Dim() == 0 {
			return fmt.Errorf("cell %d is uninitialised: %w", i, ErrInvalidInput)
		}
		if e.Cell.Dim() != d {
			return fmt.Errorf("cell %d has dimension %d, want %d: %w", i, e.Cell.Dim(), d, ErrInvalidInput)
		}
		if len(e.Signature) != d {
			return fmt.Errorf("signature %d has dimension %d, want %d: %w", i, len(e.Signature), d, ErrInvalidInput)
		}
		if e.Cell.IsUnbounded() {
			if i != g.Len()-1 {
				return fmt.Errorf("unbounded cell at %d is not last: %w", i, ErrInvalidInput)
			}
			continue
		}
		if !ContainsPoint(e.Cell, e.Signature) {
			return fmt.Errorf("signature %d %v lies outside its cell %s: %w", i, e.Signature, e.Cell, ErrInvalidInput)
		}
	}
	return nil
}

// BoundedVolume returns the summed volume of the bounded cells.
func (g *Grid) BoundedVolume() float64 {
	v := 0.0
	for _, c := range g.Bounded() {
		v += c.Volume()
	}
	return v
}

// MinDiagonal returns the smallest diagonal extent among bounded cells, or
// +Inf when there are none.
func (g *Grid) MinDiagonal() float64 {
	m := math.Inf(1)
	for _, c := range g.Bounded() {
		m = math.Min(m, DiagonalExtent(c))
	}
	return m
}
