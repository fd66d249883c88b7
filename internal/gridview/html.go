package gridview

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/massgrid/internal/grid"
	"github.com/banshee-data/massgrid/internal/mass"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderHTML writes an interactive page for a 2-D grid: a scatter of the
// bounded signatures coloured by contribution and, when rounds is not
// empty, the per-round cell counts and largest contribution.
func RenderHTML(w io.Writer, g *grid.Grid, rounds []mass.RoundStats, title string) error {
	if g.Len() == 0 {
		return fmt.Errorf("empty grid: %w", grid.ErrInvalidInput)
	}
	if g.Dim() != 2 {
		return fmt.Errorf("cannot chart %d-D grid: %w", g.Dim(), grid.ErrInvalidInput)
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(signatureScatter(g, title))
	if len(rounds) > 0 {
		page.AddCharts(roundsBar(rounds), contributionLine(rounds))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render grid page: %w", err)
	}
	return nil
}

func signatureScatter(g *grid.Grid, title string) *charts.Scatter {
	data := make([]opts.ScatterData, 0, g.Len())
	for _, e := range g.Entries() {
		if e.Cell.IsUnbounded() {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{e.Signature[0], e.Signature[1], e.Contribution}})
	}
	lo, hi := contributionRange(g)
	if hi <= lo {
		hi = lo + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("cells=%d outer=%t", g.Len(), g.HasUnbounded())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x0", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "x1", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("signatures", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

func roundLabels(rounds []mass.RoundStats) []string {
	x := make([]string, len(rounds))
	for i, r := range rounds {
		x[i] = strconv.Itoa(r.Round)
	}
	return x
}

func roundsBar(rounds []mass.RoundStats) *charts.Bar {
	cells := make([]opts.BarData, len(rounds))
	split := make([]opts.BarData, len(rounds))
	for i, r := range rounds {
		cells[i] = opts.BarData{Value: r.Cells}
		split[i] = opts.BarData{Value: r.Split}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Refinement rounds"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(roundLabels(rounds)).
		AddSeries("cells", cells).
		AddSeries("split", split,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func contributionLine(rounds []mass.RoundStats) *charts.Line {
	maxC := make([]opts.LineData, len(rounds))
	outer := make([]opts.LineData, len(rounds))
	for i, r := range rounds {
		maxC[i] = opts.LineData{Value: r.MaxContribution}
		outer[i] = opts.LineData{Value: r.OuterMass}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Contribution by round"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(roundLabels(rounds)).
		AddSeries("max contribution", maxC).
		AddSeries("outer mass", outer)
	return line
}
