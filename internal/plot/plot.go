// Package plot renders trajectories and case series as line charts.
package plot

import (
	"fmt"
	"image/color"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

// Style is how one series is drawn
type Style struct {
	// Color is a name such as "red" or "blue"; unknown or empty names use the default palette
	Color string
	Label string
}

var namedColors = map[string]color.Color{
	"black":  color.RGBA{0, 0, 0, 255},
	"red":    color.RGBA{220, 20, 20, 255},
	"green":  color.RGBA{0, 150, 0, 255},
	"blue":   color.RGBA{0, 70, 220, 255},
	"orange": color.RGBA{255, 140, 0, 255},
	"purple": color.RGBA{128, 0, 128, 255},
	"gray":   color.RGBA{128, 128, 128, 255},
	"grey":   color.RGBA{128, 128, 128, 255},
}

// ColorFor resolves a color name, falling back to the i-th palette color
func ColorFor(name string, i int) color.Color {
	if c, ok := namedColors[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return plotutil.Color(i)
}

type options struct {
	title  string
	xLabel string
	yLabel string
	width  vg.Length
	height vg.Length
}

// Option customises a chart
type Option func(*options)

// WithTitle sets the chart title
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithAxisLabels sets the axis labels
func WithAxisLabels(x, y string) Option {
	return func(o *options) { o.xLabel, o.yLabel = x, y }
}

// WithSize sets the image size in inches
func WithSize(width, height float64) Option {
	return func(o *options) { o.width, o.height = vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch }
}

// Lines draws each series in ys against x and writes the chart to filename.
// The image format follows the file extension (png, svg, pdf, ...).
func Lines(x []float64, ys [][]float64, styles []Style, filename string, opts ...Option) error {
	o := options{xLabel: "day", yLabel: "cases", width: 8 * vg.Inch, height: 4 * vg.Inch}
	for _, opt := range opts {
		opt(&o)
	}

	if len(ys) == 0 {
		return &models.InvalidInputError{Reason: "nothing to plot"}
	}
	if len(styles) != len(ys) {
		return &models.ShapeMismatchError{Observed: len(styles), Simulated: len(ys), Reason: "need one style per series"}
	}

	p := gplot.New()
	p.Title.Text = o.title
	p.X.Label.Text = o.xLabel
	p.Y.Label.Text = o.yLabel
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for i, y := range ys {
		if len(y) != len(x) {
			return &models.ShapeMismatchError{Observed: len(x), Simulated: len(y), Reason: fmt.Sprintf("series %d does not match the x axis", i)}
		}
		points := make(plotter.XYs, len(x))
		for j := range points {
			points[j].X = x[j]
			points[j].Y = y[j]
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return &models.InvalidInputError{Reason: fmt.Sprintf("series %d: %v", i, err)}
		}
		line.Color = ColorFor(styles[i].Color, i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		if styles[i].Label != "" {
			p.Legend.Add(styles[i].Label, line)
		}
	}

	if err := p.Save(o.width, o.height, filename); err != nil {
		return &models.IOError{Op: "plot", Path: filename, Err: err}
	}
	return nil
}

// Range returns 0, 1, ..., n-1 as an x axis
func Range(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}
