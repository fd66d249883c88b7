package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/massgrid/internal/grid"
	"github.com/banshee-data/massgrid/internal/mass"
)

// Run describes one stored refinement run.
type Run struct {
	RunID       string          `json:"run_id"`
	CreatedAtNs int64           `json:"created_at_ns"`
	Description string          `json:"description,omitempty"`
	Dimensions  int             `json:"dimensions"`
	CellCount   int             `json:"cell_count"`
	Rounds      int             `json:"rounds"`
	ParamsJSON  json.RawMessage `json:"params_json,omitempty"`
}

// RunStore persists grids and their refinement history.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore over db.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun stores g and its round history as a new run. A missing RunID
// is filled with a new UUID and a zero CreatedAtNs with the current time.
func (s *RunStore) InsertRun(run *Run, g *grid.Grid, history []mass.RoundStats) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}
	run.Dimensions = g.Dim()
	run.CellCount = g.Len()
	run.Rounds = len(history)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO grid_runs (
			run_id, created_at_ns, description, dimensions, cell_count, rounds, params_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAtNs, nullString(run.Description), run.Dimensions,
		run.CellCount, run.Rounds, nullString(string(run.ParamsJSON)),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	cellStmt, err := tx.Prepare(`
		INSERT INTO grid_cells (
			run_id, cell_index, unbounded, min_corner, max_corner, signature, contribution
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert cell: %w", err)
	}
	defer cellStmt.Close()

	for i, e := range g.Entries() {
		unbounded := 0
		if e.Cell.IsUnbounded() {
			unbounded = 1
		}
		if _, err := cellStmt.Exec(run.RunID, i, unbounded,
			formatCoords(e.Cell.Min()), formatCoords(e.Cell.Max()),
			formatCoords(e.Signature), e.Contribution); err != nil {
			return fmt.Errorf("insert cell %d: %w", i, err)
		}
	}

	for _, r := range history {
		if _, err := tx.Exec(`
			INSERT INTO grid_rounds (run_id, round, cells, split, max_contribution, outer_mass)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, r.Round, r.Cells, r.Split, r.MaxContribution, r.OuterMass); err != nil {
			return fmt.Errorf("insert round %d: %w", r.Round, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run's metadata by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	var run Run
	var description, params sql.NullString
	err := s.db.QueryRow(`
		SELECT run_id, created_at_ns, description, dimensions, cell_count, rounds, params_json
		FROM grid_runs WHERE run_id = ?`, runID).Scan(
		&run.RunID, &run.CreatedAtNs, &description, &run.Dimensions,
		&run.CellCount, &run.Rounds, &params,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if description.Valid {
		run.Description = description.String
	}
	if params.Valid && params.String != "" {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, created_at_ns, description, dimensions, cell_count, rounds, params_json
		FROM grid_runs ORDER BY created_at_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var description, params sql.NullString
		if err := rows.Scan(&run.RunID, &run.CreatedAtNs, &description, &run.Dimensions,
			&run.CellCount, &run.Rounds, &params); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if description.Valid {
			run.Description = description.String
		}
		if params.Valid && params.String != "" {
			run.ParamsJSON = json.RawMessage(params.String)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// LoadGrid rebuilds the stored grid of a run, contributions included.
func (s *RunStore) LoadGrid(runID string) (*grid.Grid, error) {
	rows, err := s.db.Query(`
		SELECT cell_index, unbounded, min_corner, max_corner, signature, contribution
		FROM grid_cells WHERE run_id = ? ORDER BY cell_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("load grid: %w", err)
	}
	defer rows.Close()

	var entries []grid.Entry
	for rows.Next() {
		var (
			idx, unbounded   int
			minS, maxS, sigS string
			contribution     float64
		)
		if err := rows.Scan(&idx, &unbounded, &minS, &maxS, &sigS, &contribution); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		min, err := parseCoords(minS)
		if err != nil {
			return nil, fmt.Errorf("cell %d min corner: %w", idx, err)
		}
		max, err := parseCoords(maxS)
		if err != nil {
			return nil, fmt.Errorf("cell %d max corner: %w", idx, err)
		}
		sig, err := parseCoords(sigS)
		if err != nil {
			return nil, fmt.Errorf("cell %d signature: %w", idx, err)
		}

		var c grid.Cell
		if unbounded == 1 {
			c, err = grid.NewUnboundedCell(min, max)
		} else {
			c, err = grid.NewCell(min, max)
		}
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", idx, err)
		}
		entries = append(entries, grid.Entry{Cell: c, Signature: sig, Contribution: contribution})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("run not found or empty: %s", runID)
	}
	return grid.FromEntries(entries)
}

// RoundHistory returns the stored round statistics of a run in order.
func (s *RunStore) RoundHistory(runID string) ([]mass.RoundStats, error) {
	rows, err := s.db.Query(`
		SELECT round, cells, split, max_contribution, outer_mass
		FROM grid_rounds WHERE run_id = ? ORDER BY round`, runID)
	if err != nil {
		return nil, fmt.Errorf("round history: %w", err)
	}
	defer rows.Close()

	var out []mass.RoundStats
	for rows.Next() {
		var r mass.RoundStats
		if err := rows.Scan(&r.Round, &r.Cells, &r.Split, &r.MaxContribution, &r.OuterMass); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run with its cells and rounds.
func (s *RunStore) DeleteRun(runID string) error {
	res, err := s.db.Exec(`DELETE FROM grid_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// formatCoords encodes coordinates as comma-separated text. JSON cannot
// carry the infinities of the unbounded cell, strconv can.
func formatCoords(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseCoords(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
