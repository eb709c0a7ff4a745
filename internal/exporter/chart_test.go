package exporter

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/pkg/contracts/domain"
)

func TestChartRendererRender(t *testing.T) {
	spec, _ := domain.LookupChart(domain.ChartFlow)
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		series domain.ChartSeries
	}{
		{
			name: "time series",
			series: domain.ChartSeries{ChartSpec: spec, TimeAxis: true, Points: []domain.ChartPoint{
				{X: float64(day(1).Unix()), Time: day(1), Y: 1000},
				{X: float64(day(2).Unix()), Time: day(2), Y: 1100},
				{X: float64(day(3).Unix()), Time: day(3), Y: 1050},
			}},
		},
		{
			name: "single bucket",
			series: domain.ChartSeries{ChartSpec: spec, TimeAxis: true, Points: []domain.ChartPoint{
				{X: float64(day(1).Unix()), Time: day(1), Y: 1000},
			}},
		},
		{
			name:   "no points",
			series: domain.ChartSeries{ChartSpec: spec, TimeAxis: true},
		},
		{
			name: "unknown color",
			series: domain.ChartSeries{
				ChartSpec: domain.ChartSpec{Name: "custom", Title: "Custom", Color: "teal"},
				Points:    []domain.ChartPoint{{X: 1, Y: 1}, {X: 2, Y: 4}},
			},
		},
	}
	r := NewChartRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := r.Render(tt.series, "")
			require.NoError(t, err)

			cfg, err := png.DecodeConfig(bytes.NewReader(img))
			require.NoError(t, err)
			assert.Greater(t, cfg.Width, cfg.Height, "charts are landscape")
		})
	}
}
