package grid

import "fmt"

// RefineStats summarises one contribution-driven refinement pass.
type RefineStats struct {
	Split int // cells replaced by their quadrants
	Kept  int // cells carried over unchanged
}

// RefineByContribution performs one refinement pass over g: every bounded
// cell whose contribution exceeds threshold is replaced by its four
// quadrants, each with a fresh midpoint signature and zero contribution.
// All other entries, the unbounded cell included, are kept unchanged, as
// are cells too narrow to bisect in floating point.
//
// Repeated refinement is the caller's job, recomputing contributions
// between passes.
func RefineByContribution(g *Grid, threshold float64) (*Grid, error) {
	out, _, err := RefineByContributionStats(g, threshold)
	return out, err
}

// RefineByContributionStats is RefineByContribution that also reports how
// many cells were split.
func RefineByContributionStats(g *Grid, threshold float64) (*Grid, RefineStats, error) {
	var stats RefineStats
	if err := g.Validate(); err != nil {
		return nil, stats, err
	}

	entries := make([]Entry, 0, g.Len())
	for i, e := range g.Entries() {
		if e.Cell.IsUnbounded() || !(e.Contribution > threshold) {
			entries = append(entries, e)
			stats.Kept++
			continue
		}
		if err := checkSplittable(e.Cell); err != nil {
			return nil, RefineStats{}, fmt.Errorf("cell %d: %w", i, err)
		}
		if !bisectable(e.Cell) {
			entries = append(entries, e)
			stats.Kept++
			continue
		}
		q := quadrants(e.Cell)
		for _, c := range q {
			entries = append(entries, Entry{Cell: c, Signature: midpoint(c)})
		}
		stats.Split++
	}
	return &Grid{entries: entries}, stats, nil
}

// RefineRegions is RefineByContribution over index-aligned slices. It
// returns the refined cells and signatures, also index-aligned.
func RefineRegions(cells []Cell, signatures []Point, contributions []float64, threshold float64) ([]Cell, []Point, error) {
	g, err := NewGrid(cells, signatures)
	if err != nil {
		return nil, nil, err
	}
	g, err = g.WithContributions(contributions)
	if err != nil {
		return nil, nil, err
	}
	out, err := RefineByContribution(g, threshold)
	if err != nil {
		return nil, nil, err
	}
	return out.Cells(), out.Signatures(), nil
}
