// Package sampling draws Sample Sets for density-driven refinement and
// empirical mass estimates.
package sampling

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/banshee-data/massgrid/internal/grid"
)

// Gaussian draws points from a multivariate normal distribution.
type Gaussian struct {
	dist *distmv.Normal
}

// NewGaussian builds a sampler from a mean vector and a row-major DxD
// covariance. The covariance must be symmetric positive definite. The same
// seed always yields the same sample stream.
func NewGaussian(mean, cov []float64, seed uint64) (*Gaussian, error) {
	d := len(mean)
	if d == 0 {
		return nil, fmt.Errorf("gaussian sampler needs a non-empty mean")
	}
	if len(cov) != d*d {
		return nil, fmt.Errorf("covariance has %d entries, want %d", len(cov), d*d)
	}
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			if cov[i*d+j] != cov[j*d+i] {
				return nil, fmt.Errorf("covariance is not symmetric at (%d,%d)", i, j)
			}
		}
	}
	sigma := mat.NewSymDense(d, append([]float64(nil), cov...))
	dist, ok := distmv.NewNormal(mean, sigma, rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if !ok {
		return nil, fmt.Errorf("covariance is not positive definite")
	}
	return &Gaussian{dist: dist}, nil
}

// Dim returns the dimension of drawn points.
func (g *Gaussian) Dim() int { return g.dist.Dim() }

// Sample draws n points.
func (g *Gaussian) Sample(n int) []grid.Point {
	out := make([]grid.Point, n)
	for i := range out {
		out[i] = g.dist.Rand(nil)
	}
	return out
}

// Mean returns the per-axis sample mean of points, or nil when empty.
func Mean(points []grid.Point) []float64 {
	if len(points) == 0 {
		return nil
	}
	d := len(points[0])
	col := make([]float64, len(points))
	out := make([]float64, d)
	for a := 0; a < d; a++ {
		for i, p := range points {
			col[i] = p[a]
		}
		out[a] = stat.Mean(col, nil)
	}
	return out
}

// Bounds returns the min and max corner of the points' bounding box.
func Bounds(points []grid.Point) (min, max []float64) {
	if len(points) == 0 {
		return nil, nil
	}
	min = append([]float64(nil), points[0]...)
	max = append([]float64(nil), points[0]...)
	for _, p := range points[1:] {
		for a, v := range p {
			if v < min[a] {
				min[a] = v
			}
			if v > max[a] {
				max[a] = v
			}
		}
	}
	return min, max
}
