package grid

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformSamples(n int, lo, hi float64, seed uint64) []Point {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{lo + (hi-lo)*rng.Float64(), lo + (hi-lo)*rng.Float64()}
	}
	return out
}

func TestQuadtreeParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    QuadtreeParams
		ok   bool
	}{
		{"valid", QuadtreeParams{MinProportion: 0.01, MinSize: 1}, true},
		{"proportion one", QuadtreeParams{MinProportion: 1, MinSize: 1}, true},
		{"zero proportion", QuadtreeParams{MinProportion: 0, MinSize: 1}, false},
		{"proportion above one", QuadtreeParams{MinProportion: 1.5, MinSize: 1}, false},
		{"zero size", QuadtreeParams{MinProportion: 0.1, MinSize: 0}, false},
		{"negative size", QuadtreeParams{MinProportion: 0.1, MinSize: -1}, false},
		{"infinite size", QuadtreeParams{MinProportion: 0.1, MinSize: math.Inf(1)}, false},
		{"NaN size", QuadtreeParams{MinProportion: 0.1, MinSize: math.NaN()}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.p.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}
}

func TestShouldSplit_Thresholds(t *testing.T) {
	t.Parallel()

	t.Run("proportion exactly at threshold is a leaf", func(t *testing.T) {
		t.Parallel()
		c := mustNewCell(t, []float64{0, 0}, []float64{10, 10})
		samples := []Point{{1, 1}, {20, 20}}
		assert.False(t, ShouldSplit(c, samples, QuadtreeParams{MinProportion: 0.5, MinSize: 1}))
		assert.True(t, ShouldSplit(c, samples, QuadtreeParams{MinProportion: 0.49, MinSize: 1}))
	})

	t.Run("size exactly at threshold is a leaf", func(t *testing.T) {
		t.Parallel()
		c := mustNewCell(t, []float64{0, 0}, []float64{3, 4})
		samples := []Point{{1, 1}}
		assert.False(t, ShouldSplit(c, samples, QuadtreeParams{MinProportion: 0.1, MinSize: 5}))
		assert.True(t, ShouldSplit(c, samples, QuadtreeParams{MinProportion: 0.1, MinSize: 4.99}))
	})

	t.Run("empty sample set never splits", func(t *testing.T) {
		t.Parallel()
		c := mustNewCell(t, []float64{0, 0}, []float64{100, 100})
		assert.False(t, ShouldSplit(c, nil, QuadtreeParams{MinProportion: 1e-9, MinSize: 1e-9}))
	})
}

func TestQuadrants(t *testing.T) {
	c := mustNewCell(t, []float64{0, 0}, []float64{4, 2})
	q, err := Quadrants(c)
	require.NoError(t, err)

	assert.Equal(t, "[0:2 0:1]", q[0].String(), "lower-left")
	assert.Equal(t, "[2:4 0:1]", q[1].String(), "lower-right")
	assert.Equal(t, "[0:2 1:2]", q[2].String(), "upper-left")
	assert.Equal(t, "[2:4 1:2]", q[3].String(), "upper-right")

	// Reassembling the quadrants reproduces the parent box.
	env, err := Envelope(q[:])
	require.NoError(t, err)
	assert.True(t, c.Equal(env))
	total := 0.0
	for _, sub := range q {
		total += sub.Volume()
	}
	assert.Equal(t, c.Volume(), total)
}

func TestQuadrants_Invalid(t *testing.T) {
	_, err := Quadrants(FullSpace(2))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Quadrants(mustNewCell(t, []float64{0, 0, 0}, []float64{1, 1, 1}))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Quadrants(mustNewCell(t, []float64{0, 0}, []float64{1, 0}))
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestRefine_DepthFirstOrder(t *testing.T) {
	region := mustNewCell(t, []float64{0, 0}, []float64{4, 4})
	samples := []Point{{0.3, 0.3}}

	leaves, err := Refine(region, samples, QuadtreeParams{MinProportion: 0.5, MinSize: 1})
	require.NoError(t, err)

	want := []string{
		"[0:0.5 0:0.5]", "[0.5:1 0:0.5]", "[0:0.5 0.5:1]", "[0.5:1 0.5:1]",
		"[1:2 0:1]", "[0:1 1:2]", "[1:2 1:2]",
		"[2:4 0:2]", "[0:2 2:4]", "[2:4 2:4]",
	}
	got := make([]string, len(leaves))
	for i, c := range leaves {
		got[i] = c.String()
	}
	assert.Equal(t, want, got)
}

func TestRefine_UniformSamples(t *testing.T) {
	region := mustNewCell(t, []float64{0, 0}, []float64{10, 10})
	samples := uniformSamples(100, 0, 10, 42)
	p := QuadtreeParams{MinProportion: 0.01, MinSize: 1.0}

	leaves, err := Refine(region, samples, p)
	require.NoError(t, err)
	require.NotEmpty(t, leaves)
	assert.Greater(t, len(leaves), 1)

	total := 0.0
	for _, c := range leaves {
		assert.False(t, ShouldSplit(c, samples, p), "leaf %s must not split", c)
		d := DiagonalExtent(c)
		// Every leaf's parent had a diagonal above MinSize.
		assert.Greater(t, d, p.MinSize/2)
		assert.LessOrEqual(t, d, DiagonalExtent(region))
		total += c.Volume()
	}
	assert.InDelta(t, region.Volume(), total, 1e-9)
}

func TestRefine_NoSplit(t *testing.T) {
	region := mustNewCell(t, []float64{0, 0}, []float64{10, 10})

	t.Run("empty samples", func(t *testing.T) {
		leaves, err := Refine(region, nil, QuadtreeParams{MinProportion: 0.01, MinSize: 1})
		require.NoError(t, err)
		require.Len(t, leaves, 1)
		assert.True(t, region.Equal(leaves[0]))
	})

	t.Run("region already small", func(t *testing.T) {
		samples := uniformSamples(10, 0, 10, 7)
		leaves, err := Refine(region, samples, QuadtreeParams{MinProportion: 0.01, MinSize: 100})
		require.NoError(t, err)
		require.Len(t, leaves, 1)
	})
}

func TestRefine_Invalid(t *testing.T) {
	p := QuadtreeParams{MinProportion: 0.1, MinSize: 1}

	_, err := Refine(FullSpace(2), nil, p)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Refine(mustNewCell(t, []float64{0}, []float64{1}), nil, p)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Refine(mustNewCell(t, []float64{0, 0}, []float64{0, 1}), nil, p)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	_, err = Refine(mustNewCell(t, []float64{0, 0}, []float64{1, 1}), nil, QuadtreeParams{MinProportion: 0.1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRefineAll_PreservesOrder(t *testing.T) {
	regions, err := GenerateRegions([]float64{0, 5, 10}, []float64{0, 5, 10})
	require.NoError(t, err)
	samples := uniformSamples(200, 0, 10, 3)
	p := QuadtreeParams{MinProportion: 0.02, MinSize: 1}

	var want []Cell
	for _, r := range regions {
		leaves, err := Refine(r, samples, p)
		require.NoError(t, err)
		want = append(want, leaves...)
	}

	for _, workers := range []int{0, 1, 3} {
		got, err := RefineAll(context.Background(), regions, samples, p, workers)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assert.True(t, want[i].Equal(got[i]), "workers=%d index %d", workers, i)
		}
	}
}

func TestRefineAll_Errors(t *testing.T) {
	p := QuadtreeParams{MinProportion: 0.1, MinSize: 1}
	regions := []Cell{mustNewCell(t, []float64{0, 0}, []float64{1, 1}), FullSpace(2)}

	_, err := RefineAll(context.Background(), regions, nil, p, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RefineAll(ctx, regions[:1], nil, p, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

// ulpCell is a 2-D cell whose sides are one ULP wide at 1e16, so no float
// lies strictly between its corners.
func ulpCell(t *testing.T) Cell {
	t.Helper()
	lo := 1e16
	hi := math.Nextafter(lo, math.Inf(1))
	return mustNewCell(t, []float64{lo, lo}, []float64{hi, hi})
}

func TestQuadrants_BelowResolution(t *testing.T) {
	_, err := Quadrants(ulpCell(t))
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestRefine_TerminatesAtFloatResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lo, hi float64
	}{
		{"one ulp", 1e16, math.Nextafter(1e16, math.Inf(1))},
		{"a few ulps", 1e16, 1e16 + 16},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			region := mustNewCell(t, []float64{tc.lo, tc.lo}, []float64{tc.hi, tc.hi})
			samples := []Point{{tc.lo, tc.lo}, {tc.hi, tc.hi}}
			p := QuadtreeParams{MinProportion: 0.01, MinSize: 1}
			require.True(t, DiagonalExtent(region) > p.MinSize)

			done := make(chan struct{})
			var leaves []Cell
			var err error
			go func() {
				defer close(done)
				leaves, err = Refine(region, samples, p)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("Refine did not terminate")
			}
			require.NoError(t, err)
			require.NotEmpty(t, leaves)

			total := 0.0
			for _, c := range leaves {
				assert.False(t, ShouldSplit(c, samples, p) && bisectable(c), "leaf %s", c)
				total += c.Volume()
			}
			assert.Equal(t, region.Volume(), total)
		})
	}
}
