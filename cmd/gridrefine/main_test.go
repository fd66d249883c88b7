package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/massgrid/internal/monitoring"
	"github.com/banshee-data/massgrid/internal/store"
)

const testConfig = `{
  "breakpoints": ["0:4:2", "0:4:2"],
  "min_proportion": 0.05,
  "min_size": 1.0,
  "workers": 2,
  "contribution_threshold": 0.1,
  "refinement_rounds": 2,
  "sample_count": 4000,
  "sample_mean": [2, 2],
  "sample_cov": [1, 0, 0, 1],
  "seed": 7,
  "barrier_min": [3, 3],
  "barrier_max": [4, 4]
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func TestRun_Contribution(t *testing.T) {
	dir := t.TempDir()
	o := options{
		configPath:  writeConfig(t, testConfig),
		mode:        modeContribution,
		outDir:      filepath.Join(dir, "out"),
		dbPath:      filepath.Join(dir, "runs.db"),
		description: "contribution test",
	}

	res, err := run(context.Background(), o)
	require.NoError(t, err)
	assert.Greater(t, res.Cells, 5)
	assert.NotEmpty(t, res.Rounds)
	assert.LessOrEqual(t, len(res.Rounds), 2)
	assert.InDelta(t, 16.0, res.BoundedVolume, 1e-9, "refinement keeps the covered area")

	require.Len(t, res.SampleMean, 2)
	assert.InDelta(t, 2.0, res.SampleMean[0], 0.1)
	assert.InDelta(t, 2.0, res.SampleMean[1], 0.1)
	require.Len(t, res.SampleMin, 2)
	assert.Less(t, res.SampleMin[0], res.SampleMean[0])
	assert.Greater(t, res.SampleMax[1], res.SampleMean[1])

	require.NotNil(t, res.HittingProb)
	// P(3 < X < 4)^2 for a unit normal centred on 2.
	assert.InDelta(t, 0.0185, *res.HittingProb, 0.01)
	require.NotNil(t, res.SignatureMass)

	assert.FileExists(t, res.PlotPath)
	assert.FileExists(t, res.ChartPath)

	require.NotEmpty(t, res.RunID)
	db, err := store.Open(o.dbPath)
	require.NoError(t, err)
	defer db.Close()
	s := store.NewRunStore(db.DB)

	stored, err := s.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "contribution test", stored.Description)
	assert.Equal(t, res.Cells, stored.CellCount)
	assert.Contains(t, string(stored.ParamsJSON), `"mode":"contribution"`)

	g, err := s.LoadGrid(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Cells, g.Len())
	assert.True(t, g.HasUnbounded())
}

func TestRun_Quadtree(t *testing.T) {
	res, err := run(context.Background(), options{
		configPath: writeConfig(t, testConfig),
		mode:       modeQuadtree,
	})
	require.NoError(t, err)
	assert.Greater(t, res.Cells, 5)
	assert.Empty(t, res.Rounds)
	assert.Nil(t, res.SignatureMass)
	assert.InDelta(t, 16.0, res.BoundedVolume, 1e-9)
	assert.Less(t, res.MinDiagonal, 1.0)
	assert.Empty(t, res.RunID)
	assert.Empty(t, res.PlotPath)
}

func TestRun_Errors(t *testing.T) {
	_, err := run(context.Background(), options{configPath: writeConfig(t, testConfig), mode: "bogus"})
	assert.Error(t, err)

	_, err = run(context.Background(), options{configPath: writeConfig(t, `{"min_size": -1}`), mode: modeQuadtree})
	assert.Error(t, err)

	_, err = run(context.Background(), options{configPath: filepath.Join(t.TempDir(), "missing.json"), mode: modeQuadtree})
	assert.Error(t, err)
}
