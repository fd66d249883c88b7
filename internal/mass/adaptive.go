package mass

import (
	"context"
	"fmt"

	"github.com/banshee-data/massgrid/internal/grid"
	"github.com/banshee-data/massgrid/internal/monitoring"
)

// RoundStats records one estimate/refine round.
type RoundStats struct {
	Round           int     `json:"round"`
	Cells           int     `json:"cells"`
	Split           int     `json:"split"`
	MaxContribution float64 `json:"max_contribution"`
	OuterMass       float64 `json:"outer_mass"`
}

// AdaptiveRefine alternates mass estimation and contribution-driven
// refinement for up to rounds passes, stopping early once a pass splits
// nothing. The returned grid carries contributions estimated on its final
// cells. Cancellation is checked between rounds.
func AdaptiveRefine(ctx context.Context, g *grid.Grid, est Estimator, threshold float64, rounds int) (*grid.Grid, []RoundStats, error) {
	if rounds < 0 {
		return nil, nil, fmt.Errorf("rounds must be non-negative, got %d: %w", rounds, grid.ErrInvalidInput)
	}

	var history []RoundStats
	for r := 0; ; r++ {
		if err := ctx.Err(); err != nil {
			return nil, history, err
		}
		contrib, err := est.Estimate(ctx, g)
		if err != nil {
			return nil, history, fmt.Errorf("round %d estimate: %w", r, err)
		}
		g, err = g.WithContributions(contrib)
		if err != nil {
			return nil, history, fmt.Errorf("round %d: %w", r, err)
		}
		if r == rounds {
			break
		}

		next, stats, err := grid.RefineByContributionStats(g, threshold)
		if err != nil {
			return nil, history, fmt.Errorf("round %d refine: %w", r, err)
		}
		rs := summarise(r, g, stats)
		history = append(history, rs)
		monitoring.Debugf("refine round=%d cells=%d split=%d max_contribution=%.4g outer_mass=%.4g",
			rs.Round, rs.Cells, rs.Split, rs.MaxContribution, rs.OuterMass)
		if stats.Split == 0 {
			break
		}
		g = next
	}
	monitoring.Logf("adaptive refinement finished: rounds=%d cells=%d", len(history), g.Len())
	return g, history, nil
}

func summarise(round int, g *grid.Grid, stats grid.RefineStats) RoundStats {
	rs := RoundStats{Round: round, Cells: g.Len(), Split: stats.Split}
	for _, e := range g.Entries() {
		if e.Cell.IsUnbounded() {
			rs.OuterMass = e.Contribution
			continue
		}
		if e.Contribution > rs.MaxContribution {
			rs.MaxContribution = e.Contribution
		}
	}
	return rs
}
