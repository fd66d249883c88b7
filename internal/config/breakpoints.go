package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxBreakpoints caps the number of values a single range may expand to.
const maxBreakpoints = 100000

// RangeSpec defines an evenly spaced breakpoint range.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}
	step, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}

	if !(step > 0) || math.IsInf(step, 0) {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", step)
	}
	if !(max > min) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return RangeSpec{}, fmt.Errorf("range must satisfy min < max with finite bounds, got %g:%g", min, max)
	}
	return RangeSpec{Min: min, Max: max, Step: step}, nil
}

// GenerateRange returns min, min+step, ... up to max. Values are computed
// from the index rather than accumulated. When step does not divide the
// range, max is appended as the last breakpoint so the range is covered.
// Returns nil if the range would exceed maxBreakpoints values.
func GenerateRange(spec RangeSpec) []float64 {
	n := (spec.Max - spec.Min) / spec.Step
	// Tolerate rounding in steps like 0.1 that nearly divide the range.
	whole := math.Round(n)
	if math.Abs(n-whole) < 1e-9*math.Max(1, whole) {
		n = whole
	}
	count := int(math.Floor(n)) + 1
	if count < 1 || count > maxBreakpoints {
		return nil
	}

	out := make([]float64, 0, count+1)
	for i := 0; i < count; i++ {
		out = append(out, spec.Min+float64(i)*spec.Step)
	}
	last := out[len(out)-1]
	if n == math.Floor(n) {
		out[len(out)-1] = spec.Max
	} else if last < spec.Max {
		out = append(out, spec.Max)
	}
	return out
}

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseBreakpoints parses one axis of breakpoints. A string containing a
// colon is a "min:max:step" range; anything else is a comma-separated
// list. The result has at least two strictly increasing values.
func ParseBreakpoints(s string) ([]float64, error) {
	var (
		bp  []float64
		err error
	)
	if strings.Contains(s, ":") {
		var spec RangeSpec
		spec, err = ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		bp = GenerateRange(spec)
		if bp == nil {
			return nil, fmt.Errorf("range %q expands to more than %d breakpoints", s, maxBreakpoints)
		}
	} else {
		bp, err = ParseCSVFloat64s(s)
		if err != nil {
			return nil, err
		}
	}

	if len(bp) < 2 {
		return nil, fmt.Errorf("need at least 2 breakpoints, got %d in %q", len(bp), s)
	}
	for i := 1; i < len(bp); i++ {
		if !(bp[i] > bp[i-1]) {
			return nil, fmt.Errorf("breakpoints must be strictly increasing: %g after %g in %q", bp[i], bp[i-1], s)
		}
	}
	return bp, nil
}
