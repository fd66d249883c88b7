// Package gridview renders 2-D grids as static PNG plots and interactive
// HTML charts.
package gridview

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/massgrid/internal/grid"
)

// PlotSize is the width and height of saved PNG plots.
const PlotSize = 8 * vg.Inch

// SavePNG draws every bounded cell of g as a rectangle shaded by its
// contribution, overlays the signatures, and writes the plot to path. The
// unbounded cell has no finite extent and is left out.
func SavePNG(g *grid.Grid, path, title string) error {
	p, err := NewPlot(g, title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plot directory: %w", err)
	}
	if err := p.Save(PlotSize, PlotSize, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

// NewPlot builds the cell plot for g without saving it.
func NewPlot(g *grid.Grid, title string) (*plot.Plot, error) {
	if g.Len() == 0 {
		return nil, fmt.Errorf("empty grid: %w", grid.ErrInvalidInput)
	}
	if g.Dim() != 2 {
		return nil, fmt.Errorf("cannot plot %d-D grid: %w", g.Dim(), grid.ErrInvalidInput)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x0"
	p.Y.Label.Text = "x1"

	lo, hi := contributionRange(g)
	sigs := make(plotter.XYs, 0, g.Len())
	for _, e := range g.Entries() {
		if e.Cell.IsUnbounded() {
			continue
		}
		poly, err := plotter.NewPolygon(cellOutline(e.Cell))
		if err != nil {
			return nil, fmt.Errorf("cell polygon %s: %w", e.Cell, err)
		}
		poly.Color = shade(e.Contribution, lo, hi)
		poly.LineStyle.Width = vg.Points(0.5)
		poly.LineStyle.Color = color.Gray{Y: 80}
		p.Add(poly)
		sigs = append(sigs, plotter.XY{X: e.Signature[0], Y: e.Signature[1]})
	}

	if len(sigs) > 0 {
		sc, err := plotter.NewScatter(sigs)
		if err != nil {
			return nil, fmt.Errorf("signature scatter: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		sc.GlyphStyle.Color = color.Black
		p.Add(sc)
		p.Legend.Add("signatures", sc)
	}
	return p, nil
}

// cellOutline lists the corners of a 2-D cell counter-clockwise.
func cellOutline(c grid.Cell) plotter.XYs {
	return plotter.XYs{
		{X: c.Lo(0), Y: c.Lo(1)},
		{X: c.Hi(0), Y: c.Lo(1)},
		{X: c.Hi(0), Y: c.Hi(1)},
		{X: c.Lo(0), Y: c.Hi(1)},
	}
}

func contributionRange(g *grid.Grid) (lo, hi float64) {
	var bounded []float64
	for _, e := range g.Entries() {
		if !e.Cell.IsUnbounded() {
			bounded = append(bounded, e.Contribution)
		}
	}
	if len(bounded) == 0 {
		return 0, 0
	}
	return floats.Min(bounded), floats.Max(bounded)
}

// shade maps v in [lo, hi] onto a blue (low) to red (high) hue.
func shade(v, lo, hi float64) color.Color {
	t := 0.0
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	r, g, b := hslToRGB((1-t)*2.0/3.0, 0.7, 0.55)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
