package viz

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/field"
	"github.com/san-kum/quadfield/internal/quad"
	"github.com/san-kum/quadfield/internal/sim"
)

// WriteHTML renders a self-contained HTML report for a run: a top-down
// scatter of obstacles and trajectory, and time series of the repulsive
// force magnitude and altitude.
func WriteHTML(path, title string, result *sim.Result, grid *field.VoxelGrid) error {
	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(
		trajectoryScatter(title, result, grid),
		forceLine(result),
		altitudeLine(result),
	)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func trajectoryScatter(title string, result *sim.Result, grid *field.VoxelGrid) *charts.Scatter {
	obstacles := grid.Points()
	obsData := make([]opts.ScatterData, 0, len(obstacles))
	for _, p := range obstacles {
		obsData = append(obsData, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}

	trajData := make([]opts.ScatterData, 0, len(result.States))
	for _, x := range result.States {
		pos := quad.Decode(x).Pos
		trajData = append(trajData, opts.ScatterData{Value: []interface{}{pos.X, pos.Y}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("steps=%d completed=%v", result.StepsTaken, result.Completed),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("obstacles", obsData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("trajectory", trajData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	return scatter
}

func forceLine(result *sim.Result) *charts.Line {
	xs := make([]string, 0, len(result.Forces))
	ys := make([]opts.LineData, 0, len(result.Forces))
	for i, f := range result.Forces {
		xs = append(xs, fmt.Sprintf("%.2f", result.Times[i]))
		ys = append(ys, opts.LineData{Value: r3.Norm(f)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Repulsive force magnitude"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	line.SetXAxis(xs)
	line.AddSeries("|F|", ys)
	return line
}

func altitudeLine(result *sim.Result) *charts.Line {
	xs := make([]string, 0, len(result.States))
	ys := make([]opts.LineData, 0, len(result.States))
	for i, x := range result.States {
		xs = append(xs, fmt.Sprintf("%.2f", result.Times[i]))
		ys = append(ys, opts.LineData{Value: quad.Decode(x).Pos.Z})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Altitude"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	line.SetXAxis(xs)
	line.AddSeries("z (m)", ys)
	return line
}
