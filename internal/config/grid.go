package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical grid defaults file.
const DefaultConfigPath = "config/grid.defaults.json"

// GridConfig is the root configuration for building and refining a grid.
// Every field is optional; the Get* accessors supply defaults for fields
// the JSON leaves out, so partial configs are safe.
type GridConfig struct {
	// Breakpoints holds one entry per axis, either a "min:max:step" range
	// or a comma-separated list of increasing values.
	Breakpoints []string `json:"breakpoints,omitempty"`

	// Quadtree refinement
	MinProportion *float64 `json:"min_proportion,omitempty"`
	MinSize       *float64 `json:"min_size,omitempty"`
	Workers       *int     `json:"workers,omitempty"`

	// Contribution-driven refinement
	ContributionThreshold *float64 `json:"contribution_threshold,omitempty"`
	RefinementRounds      *int     `json:"refinement_rounds,omitempty"`
	OuterMargin           *float64 `json:"outer_margin,omitempty"`

	// Sample set drawn for density and mass estimates
	SampleCount *int      `json:"sample_count,omitempty"`
	SampleMean  []float64 `json:"sample_mean,omitempty"`
	SampleCov   []float64 `json:"sample_cov,omitempty"` // row-major DxD
	Seed        *uint64   `json:"seed,omitempty"`

	// Optional unsafe region whose hitting probability is reported
	BarrierMin []float64 `json:"barrier_min,omitempty"`
	BarrierMax []float64 `json:"barrier_max,omitempty"`
}

// EmptyGridConfig returns a GridConfig with all fields unset.
func EmptyGridConfig() *GridConfig {
	return &GridConfig{}
}

// LoadGridConfig loads a GridConfig from a JSON file. The path must have a
// .json extension and the file must be under 1MB.
func LoadGridConfig(path string) (*GridConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyGridConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *GridConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadGridConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *GridConfig) Validate() error {
	if c.MinProportion != nil {
		if v := *c.MinProportion; !(v > 0) || v > 1 {
			return fmt.Errorf("min_proportion must be in (0, 1], got %f", v)
		}
	}
	if c.MinSize != nil {
		if v := *c.MinSize; !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("min_size must be positive and finite, got %f", v)
		}
	}
	if c.OuterMargin != nil {
		if v := *c.OuterMargin; !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("outer_margin must be positive and finite, got %f", v)
		}
	}
	if c.ContributionThreshold != nil && math.IsNaN(*c.ContributionThreshold) {
		return fmt.Errorf("contribution_threshold must be a number")
	}
	if c.RefinementRounds != nil && *c.RefinementRounds < 0 {
		return fmt.Errorf("refinement_rounds must be non-negative, got %d", *c.RefinementRounds)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.SampleCount != nil && *c.SampleCount < 0 {
		return fmt.Errorf("sample_count must be non-negative, got %d", *c.SampleCount)
	}

	if len(c.Breakpoints) > 0 {
		if _, err := c.AxisBreakpoints(); err != nil {
			return err
		}
	}
	d := c.Dim()
	if c.SampleMean != nil && len(c.SampleMean) != d {
		return fmt.Errorf("sample_mean has %d values for %d axes", len(c.SampleMean), d)
	}
	if c.SampleCov != nil && len(c.SampleCov) != d*d {
		return fmt.Errorf("sample_cov has %d values, want %d for %d axes", len(c.SampleCov), d*d, d)
	}
	if (c.BarrierMin == nil) != (c.BarrierMax == nil) {
		return fmt.Errorf("barrier_min and barrier_max must be set together")
	}
	if c.BarrierMin != nil && (len(c.BarrierMin) != d || len(c.BarrierMax) != d) {
		return fmt.Errorf("barrier corners must have %d values", d)
	}
	return nil
}

// Dim returns the number of axes, from Breakpoints or the defaults.
func (c *GridConfig) Dim() int {
	return len(c.GetBreakpoints())
}

// GetBreakpoints returns the per-axis breakpoint specs or the default
// unit grid over [0,10]x[0,10].
func (c *GridConfig) GetBreakpoints() []string {
	if len(c.Breakpoints) == 0 {
		return []string{"0:10:1", "0:10:1"}
	}
	return c.Breakpoints
}

// AxisBreakpoints parses GetBreakpoints into per-axis value lists.
func (c *GridConfig) AxisBreakpoints() ([][]float64, error) {
	specs := c.GetBreakpoints()
	out := make([][]float64, len(specs))
	for i, s := range specs {
		bp, err := ParseBreakpoints(s)
		if err != nil {
			return nil, fmt.Errorf("breakpoints axis %d: %w", i, err)
		}
		out[i] = bp
	}
	return out, nil
}

// GetMinProportion returns the min_proportion value or the default.
func (c *GridConfig) GetMinProportion() float64 {
	if c.MinProportion == nil {
		return 0.01
	}
	return *c.MinProportion
}

// GetMinSize returns the min_size value or the default.
func (c *GridConfig) GetMinSize() float64 {
	if c.MinSize == nil {
		return 1.0
	}
	return *c.MinSize
}

// GetWorkers returns the workers value or the default (0, one per region).
func (c *GridConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetContributionThreshold returns the contribution_threshold value or the default.
func (c *GridConfig) GetContributionThreshold() float64 {
	if c.ContributionThreshold == nil {
		return 0.02
	}
	return *c.ContributionThreshold
}

// GetRefinementRounds returns the refinement_rounds value or the default.
func (c *GridConfig) GetRefinementRounds() int {
	if c.RefinementRounds == nil {
		return 3
	}
	return *c.RefinementRounds
}

// GetOuterMargin returns the outer_margin value or the default.
func (c *GridConfig) GetOuterMargin() float64 {
	if c.OuterMargin == nil {
		return 0.1
	}
	return *c.OuterMargin
}

// GetSampleCount returns the sample_count value or the default.
func (c *GridConfig) GetSampleCount() int {
	if c.SampleCount == nil {
		return 10000
	}
	return *c.SampleCount
}

// GetSampleMean returns sample_mean or the centre of the default domain.
func (c *GridConfig) GetSampleMean() []float64 {
	if c.SampleMean != nil {
		return c.SampleMean
	}
	mean := make([]float64, c.Dim())
	for i := range mean {
		mean[i] = 5
	}
	return mean
}

// GetSampleCov returns sample_cov or the identity.
func (c *GridConfig) GetSampleCov() []float64 {
	if c.SampleCov != nil {
		return c.SampleCov
	}
	d := c.Dim()
	cov := make([]float64, d*d)
	for i := 0; i < d; i++ {
		cov[i*d+i] = 1
	}
	return cov
}

// GetSeed returns the seed value or the default.
func (c *GridConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// HasBarrier reports whether an unsafe region is configured.
func (c *GridConfig) HasBarrier() bool {
	return c.BarrierMin != nil && c.BarrierMax != nil
}
