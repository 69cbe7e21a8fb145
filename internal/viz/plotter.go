package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/quadfield/internal/field"
	"github.com/san-kum/quadfield/internal/quad"
	"github.com/san-kum/quadfield/internal/sim"
)

// RenderPNG writes a top-down (XY) plot of the run: obstacle voxels, the
// flown trajectory, and the route waypoints.
func RenderPNG(path, title string, result *sim.Result, grid *field.VoxelGrid, waypoints []r3.Vec) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	obstacles := grid.Points()
	if len(obstacles) > 0 {
		pts := make(plotter.XYs, len(obstacles))
		for i, o := range obstacles {
			pts[i] = plotter.XY{X: o.X, Y: o.Y}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("obstacle scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add("obstacles", sc)
	}

	if len(result.States) > 0 {
		pts := make(plotter.XYs, len(result.States))
		for i, x := range result.States {
			pos := quad.Decode(x).Pos
			pts[i] = plotter.XY{X: pos.X, Y: pos.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("trajectory line: %w", err)
		}
		line.Color = color.RGBA{R: 66, G: 135, B: 245, A: 255}
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("trajectory", line)
	}

	if len(waypoints) > 0 {
		pts := make(plotter.XYs, len(waypoints))
		for i, wp := range waypoints {
			pts[i] = plotter.XY{X: wp.X, Y: wp.Y}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("waypoint scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 46, G: 204, B: 113, A: 255}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("waypoints", sc)
	}

	p.Legend.Top = true
	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
