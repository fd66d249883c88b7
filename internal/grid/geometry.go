package grid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vertices returns the 2^D corners of c. Bit i of the enumeration index
// selects the max corner on axis i, so the first vertex is the min corner
// and the last is the max corner.
func Vertices(c Cell) []Point {
	d := c.Dim()
	n := 1 << uint(d)
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		v := make(Point, d)
		for j := 0; j < d; j++ {
			if (i>>uint(j))&1 == 1 {
				v[j] = c.max[j]
			} else {
				v[j] = c.min[j]
			}
		}
		out[i] = v
	}
	return out
}

// DiagonalExtent is the Euclidean distance between the first and last
// vertex of c. It is +Inf for the unbounded cell and for any cell with an
// infinite side.
func DiagonalExtent(c Cell) float64 {
	if c.IsUnbounded() {
		return math.Inf(1)
	}
	for i := range c.min {
		if math.IsInf(c.max[i]-c.min[i], 1) {
			return math.Inf(1)
		}
	}
	// The first and last vertices are the min and max corners.
	return floats.Distance(c.min, c.max, 2)
}

// ContainsPoint reports whether p lies within the closed box of c. Points
// of the wrong dimension are never contained.
func ContainsPoint(c Cell, p Point) bool {
	if len(p) != c.Dim() {
		return false
	}
	for i, x := range p {
		if x < c.min[i] || x > c.max[i] {
			return false
		}
	}
	return true
}

// SampleFraction returns the fraction of samples contained in c, in [0, 1].
// An empty sample set yields 0.
func SampleFraction(samples []Point, c Cell) float64 {
	if len(samples) == 0 {
		return 0
	}
	return float64(countInside(samples, c)) / float64(len(samples))
}

func countInside(samples []Point, c Cell) int {
	n := 0
	for _, p := range samples {
		if ContainsPoint(c, p) {
			n++
		}
	}
	return n
}

// midpoint returns the per-axis midpoint of c's corners.
func midpoint(c Cell) Point {
	m := make(Point, c.Dim())
	floats.AddTo(m, c.min, c.max)
	floats.Scale(0.5, m)
	return m
}
