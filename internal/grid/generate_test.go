package grid

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRegions_Count(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lists  [][]float64
		expect int
	}{
		{"1-D", [][]float64{{0, 1, 2, 3}}, 3},
		{"2-D", [][]float64{{0, 1, 2}, {0, 5, 10, 15}}, 6},
		{"3-D", [][]float64{{0, 1}, {0, 1, 2}, {-1, 0, 1, 2}}, 6},
		{"single cell", [][]float64{{0, 1}, {0, 1}}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cells, err := GenerateRegions(tc.lists...)
			require.NoError(t, err)
			assert.Len(t, cells, tc.expect)
		})
	}
}

func TestGenerateRegions_Order(t *testing.T) {
	cells, err := GenerateRegions([]float64{0, 1, 2}, []float64{10, 20, 30})
	require.NoError(t, err)
	require.Len(t, cells, 4)

	// First axis varies slowest.
	assert.Equal(t, "[0:1 10:20]", cells[0].String())
	assert.Equal(t, "[0:1 20:30]", cells[1].String())
	assert.Equal(t, "[1:2 10:20]", cells[2].String())
	assert.Equal(t, "[1:2 20:30]", cells[3].String())
}

func TestGenerateRegions_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lists [][]float64
	}{
		{"no lists", nil},
		{"too short", [][]float64{{0, 1}, {3}}},
		{"unsorted", [][]float64{{0, 2, 1}}},
		{"duplicate", [][]float64{{0, 1, 1, 2}}},
		{"NaN", [][]float64{{0, math.NaN()}}},
		{"infinite", [][]float64{{0, math.Inf(1)}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cells, err := GenerateRegions(tc.lists...)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, cells)
		})
	}
}

func TestGenerateRegions_TilesBoundingBox(t *testing.T) {
	xs := []float64{-3, -1, 0, 0.5, 4}
	ys := []float64{0, 2, 2.5, 7}
	cells, err := GenerateRegions(xs, ys)
	require.NoError(t, err)

	// Volumes add up to the bounding box.
	total := 0.0
	for _, c := range cells {
		total += c.Volume()
	}
	assert.InDelta(t, (4-(-3))*(7-0), total, 1e-9)

	// Random interior points fall in exactly one cell. Breakpoint values
	// are measure-zero and excluded so that shared faces do not count.
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 2000; i++ {
		p := Point{-3 + 7*rng.Float64(), 7 * rng.Float64()}
		if onBreakpoint(p[0], xs) || onBreakpoint(p[1], ys) {
			continue
		}
		n := 0
		for _, c := range cells {
			if ContainsPoint(c, p) {
				n++
			}
		}
		require.Equal(t, 1, n, "point %v", p)
	}
}

func onBreakpoint(v float64, bp []float64) bool {
	for _, b := range bp {
		if v == b {
			return true
		}
	}
	return false
}

func TestEnvelope(t *testing.T) {
	cells, err := GenerateRegions([]float64{1, 2, 5}, []float64{-4, 0, 3})
	require.NoError(t, err)

	env, err := Envelope(cells)
	require.NoError(t, err)
	assert.Equal(t, Point{1, -4}, env.Min())
	assert.Equal(t, Point{5, 3}, env.Max())

	_, err = Envelope(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Envelope(append(cells, FullSpace(2)))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOuterPoint(t *testing.T) {
	cells, err := GenerateRegions([]float64{0, 2, 4}, []float64{0, 5, 10})
	require.NoError(t, err)

	p, err := OuterPoint(cells, DefaultOuterMargin)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p[0], "centroid on leading axes")
	assert.InDelta(t, 10.1, p[1], 1e-12)

	for _, c := range cells {
		assert.Greater(t, p[1], c.Hi(1))
		assert.False(t, ContainsPoint(c, p))
	}
}

func TestOuterPoint_StrictlyBeyondAtLargeScale(t *testing.T) {
	cells, err := GenerateRegions([]float64{0, 1}, []float64{0, 1e20})
	require.NoError(t, err)

	// 1e20 + 0.1 rounds back to 1e20.
	p, err := OuterPoint(cells, DefaultOuterMargin)
	require.NoError(t, err)
	assert.Greater(t, p[1], 1e20)
}

func TestOuterPoint_Invalid(t *testing.T) {
	cells, _ := GenerateRegions([]float64{0, 1}, []float64{0, 1})

	_, err := OuterPoint(cells, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = OuterPoint(cells, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = OuterPoint(nil, 0.1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateRegions_TooMany(t *testing.T) {
	t.Parallel()

	t.Run("product overflows int", func(t *testing.T) {
		t.Parallel()
		lists := make([][]float64, 63)
		for i := range lists {
			lists[i] = []float64{0, 1, 2}
		}
		cells, err := GenerateRegions(lists...)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, cells)
	})

	t.Run("above cap", func(t *testing.T) {
		t.Parallel()
		bp := make([]float64, 5000)
		for i := range bp {
			bp[i] = float64(i)
		}
		_, err := GenerateRegions(bp, bp)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("cap exceeded on last axis", func(t *testing.T) {
		t.Parallel()
		bp := make([]float64, 4097)
		for i := range bp {
			bp[i] = float64(i)
		}
		_, err := GenerateRegions(bp, bp, []float64{0, 1, 2})
		assert.ErrorIs(t, err, ErrInvalidInput, "4096*4096*2 exceeds the cap")
	})
}
