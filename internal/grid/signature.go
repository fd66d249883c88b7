package grid

import "fmt"

// PlaceSignatures returns the midpoint of each cell, in cell order.
func PlaceSignatures(cells []Cell) ([]Point, error) {
	out := make([]Point, len(cells))
	for i, c := range cells {
		if c.IsUnbounded() {
			return nil, fmt.Errorf("cell %d is unbounded and has no midpoint signature: %w", i, ErrInvalidInput)
		}
		out[i] = midpoint(c)
	}
	return out, nil
}

// Build pairs bounded cells with their midpoint signatures.
func Build(cells []Cell) (*Grid, error) {
	sigs, err := PlaceSignatures(cells)
	if err != nil {
		return nil, err
	}
	return NewGrid(cells, sigs)
}

// AddUnbounded returns a copy of g with the unbounded cell and its
// caller-supplied signature appended. A grid carries at most one unbounded
// cell, so a second call fails.
func (g *Grid) AddUnbounded(cell Cell, outerSignature Point) (*Grid, error) {
	if !cell.IsUnbounded() {
		return nil, fmt.Errorf("AddUnbounded given bounded cell %s: %w", cell, ErrInvalidInput)
	}
	if g.HasUnbounded() {
		return nil, fmt.Errorf("grid already has an unbounded cell: %w", ErrInvalidInput)
	}
	if d := g.Dim(); d != 0 && (cell.Dim() != d || len(outerSignature) != d) {
		return nil, fmt.Errorf("unbounded cell/signature dimension %d/%d, grid has %d: %w",
			cell.Dim(), len(outerSignature), d, ErrInvalidInput)
	}
	entries := append(g.Entries(), Entry{Cell: cell, Signature: clone(outerSignature)})
	return FromEntries(entries)
}
