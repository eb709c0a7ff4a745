package exporter

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"flowpulse/pkg/contracts/domain"
)

var chartColors = map[string]color.RGBA{
	"blue":   {R: 0, G: 0, B: 255, A: 255},
	"green":  {R: 0, G: 128, B: 0, A: 255},
	"red":    {R: 255, G: 0, B: 0, A: 255},
	"purple": {R: 128, G: 0, B: 128, A: 255},
}

// ChartRenderer draws chart series as PNG images in memory
type ChartRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewChartRenderer returns a renderer for 6x4 inch charts
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

// Render draws one series as a line chart titled title. An empty title uses
// the dashboard title of the series.
func (r *ChartRenderer) Render(s domain.ChartSeries, title string) ([]byte, error) {
	if title == "" {
		title = s.Title
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	if s.TimeAxis {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	}
	p.Add(plotter.NewGrid())

	c, ok := chartColors[s.Color]
	if !ok {
		c = chartColors["blue"]
	}

	points := make(plotter.XYs, len(s.Points))
	for i, pt := range s.Points {
		points[i].X = pt.X
		points[i].Y = pt.Y
	}

	switch len(points) {
	case 0:
		// Nothing to draw; keep the axes so the chart still renders.
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	case 1:
		// A single bucket has no segment to draw, so mark the point.
		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", s.Name, err)
		}
		scatter.GlyphStyle.Color = c
		scatter.GlyphStyle.Radius = vg.Points(4)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
	default:
		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", s.Name, err)
		}
		line.Color = c
		line.Width = vg.Points(1.5)
		p.Add(line)
	}

	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", s.Name, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart %s: encode png: %w", s.Name, err)
	}
	return buf.Bytes(), nil
}
