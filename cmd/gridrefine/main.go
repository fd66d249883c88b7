// Command gridrefine builds an adaptive grid over a sampled distribution
// and optionally plots and stores the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/banshee-data/massgrid/internal/config"
	"github.com/banshee-data/massgrid/internal/grid"
	"github.com/banshee-data/massgrid/internal/gridview"
	"github.com/banshee-data/massgrid/internal/mass"
	"github.com/banshee-data/massgrid/internal/monitoring"
	"github.com/banshee-data/massgrid/internal/sampling"
	"github.com/banshee-data/massgrid/internal/store"
	"github.com/banshee-data/massgrid/internal/version"
)

const (
	modeQuadtree     = "quadtree"
	modeContribution = "contribution"
)

type options struct {
	configPath  string
	mode        string
	outDir      string
	dbPath      string
	description string
}

// result summarises one refinement run.
type result struct {
	Mode          string            `json:"mode"`
	Cells         int               `json:"cells"`
	BoundedVolume float64           `json:"bounded_volume"`
	MinDiagonal   float64           `json:"min_diagonal"`
	Rounds        []mass.RoundStats `json:"rounds,omitempty"`
	SampleMean    []float64         `json:"sample_mean"`
	SampleMin     []float64         `json:"sample_min"`
	SampleMax     []float64         `json:"sample_max"`
	HittingProb   *float64          `json:"hitting_probability,omitempty"`
	SignatureMass *float64          `json:"signature_mass,omitempty"`
	RunID         string            `json:"run_id,omitempty"`
	PlotPath      string            `json:"plot_path,omitempty"`
	ChartPath     string            `json:"chart_path,omitempty"`

	grid *grid.Grid
}

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to grid config JSON")
	mode := flag.String("mode", modeContribution, "Refinement mode: quadtree or contribution")
	outDir := flag.String("out", "", "Directory for PNG and HTML output (empty to skip)")
	dbPath := flag.String("db", "", "SQLite database to store the run in (empty to skip)")
	description := flag.String("desc", "", "Description stored with the run")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("gridrefine", version.String())
		return
	}

	monitoring.SetDebug(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := run(ctx, options{
		configPath:  *configPath,
		mode:        *mode,
		outDir:      *outDir,
		dbPath:      *dbPath,
		description: *description,
	})
	if err != nil {
		log.Fatalf("gridrefine: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("gridrefine: encode result: %v", err)
	}
}

func run(ctx context.Context, o options) (*result, error) {
	cfg, err := config.LoadGridConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	axes, err := cfg.AxisBreakpoints()
	if err != nil {
		return nil, err
	}
	regions, err := grid.GenerateRegions(axes...)
	if err != nil {
		return nil, fmt.Errorf("generate regions: %w", err)
	}
	monitoring.Logf("generated %d regions over %d axes", len(regions), len(axes))

	gauss, err := sampling.NewGaussian(cfg.GetSampleMean(), cfg.GetSampleCov(), cfg.GetSeed())
	if err != nil {
		return nil, err
	}
	samples := gauss.Sample(cfg.GetSampleCount())

	res := &result{Mode: o.mode, SampleMean: sampling.Mean(samples)}
	res.SampleMin, res.SampleMax = sampling.Bounds(samples)
	monitoring.Debugf("drew %d samples, mean=%v", len(samples), res.SampleMean)
	switch o.mode {
	case modeQuadtree:
		res.grid, err = refineQuadtree(ctx, cfg, regions, samples)
	case modeContribution:
		res.grid, res.Rounds, err = refineContribution(ctx, cfg, regions, samples)
	default:
		err = fmt.Errorf("unknown mode %q", o.mode)
	}
	if err != nil {
		return nil, err
	}
	g := res.grid
	res.Cells = g.Len()
	res.BoundedVolume = g.BoundedVolume()
	res.MinDiagonal = g.MinDiagonal()

	if cfg.HasBarrier() {
		barrier, err := grid.NewCell(cfg.BarrierMin, cfg.BarrierMax)
		if err != nil {
			return nil, fmt.Errorf("barrier: %w", err)
		}
		hp := mass.HittingProbability(samples, barrier)
		res.HittingProb = &hp
		if o.mode == modeContribution {
			sm := mass.SignatureMass(g, barrier)
			res.SignatureMass = &sm
		}
	}

	if o.outDir != "" {
		if err := writeOutputs(o.outDir, res); err != nil {
			return nil, err
		}
	}

	if o.dbPath != "" {
		if err := storeRun(o, cfg, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// refineQuadtree splits every region by sample density and attaches the
// unbounded cell to the resulting leaves.
func refineQuadtree(ctx context.Context, cfg *config.GridConfig, regions []grid.Cell, samples []grid.Point) (*grid.Grid, error) {
	p := grid.QuadtreeParams{MinProportion: cfg.GetMinProportion(), MinSize: cfg.GetMinSize()}
	leaves, err := grid.RefineAll(ctx, regions, samples, p, cfg.GetWorkers())
	if err != nil {
		return nil, fmt.Errorf("quadtree refine: %w", err)
	}
	monitoring.Logf("quadtree produced %d leaves from %d regions", len(leaves), len(regions))
	g, err := withOuterCell(leaves, cfg.GetOuterMargin())
	if err != nil {
		return nil, err
	}
	contrib, err := mass.Empirical{Samples: samples}.Estimate(ctx, g)
	if err != nil {
		return nil, err
	}
	return g.WithContributions(contrib)
}

// refineContribution runs the estimate/refine loop on the initial regions.
func refineContribution(ctx context.Context, cfg *config.GridConfig, regions []grid.Cell, samples []grid.Point) (*grid.Grid, []mass.RoundStats, error) {
	g, err := withOuterCell(regions, cfg.GetOuterMargin())
	if err != nil {
		return nil, nil, err
	}
	return mass.AdaptiveRefine(ctx, g, mass.Empirical{Samples: samples},
		cfg.GetContributionThreshold(), cfg.GetRefinementRounds())
}

func withOuterCell(cells []grid.Cell, margin float64) (*grid.Grid, error) {
	g, err := grid.Build(cells)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	outer, err := grid.OuterPoint(cells, margin)
	if err != nil {
		return nil, fmt.Errorf("outer point: %w", err)
	}
	return g.AddUnbounded(grid.FullSpace(g.Dim()), outer)
}

func writeOutputs(dir string, res *result) error {
	if res.grid.Dim() != 2 {
		monitoring.Logf("skipping plots for %d-D grid", res.grid.Dim())
		return nil
	}
	res.PlotPath = filepath.Join(dir, "grid.png")
	title := fmt.Sprintf("%s refinement (%d cells)", res.Mode, res.Cells)
	if err := gridview.SavePNG(res.grid, res.PlotPath, title); err != nil {
		return err
	}

	res.ChartPath = filepath.Join(dir, "grid.html")
	f, err := os.Create(res.ChartPath)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := gridview.RenderHTML(f, res.grid, res.Rounds, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func storeRun(o options, cfg *config.GridConfig, res *result) error {
	db, err := store.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	params, err := json.Marshal(struct {
		Version string             `json:"version"`
		Mode    string             `json:"mode"`
		Config  *config.GridConfig `json:"config"`
	}{version.String(), res.Mode, cfg})
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	run := &store.Run{Description: o.description, ParamsJSON: params}
	if err := store.NewRunStore(db.DB).InsertRun(run, res.grid, res.Rounds); err != nil {
		return err
	}
	res.RunID = run.RunID
	monitoring.Logf("stored run %s (%d cells)", run.RunID, res.Cells)
	return nil
}
