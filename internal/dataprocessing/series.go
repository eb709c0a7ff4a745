package dataprocessing

import (
	"fmt"
	"math"

	"flowpulse/pkg/contracts/domain"
)

// BuildSeries extracts the points of one chart. Time charts read the named
// column of t against Timestamp; the prediction chart reads the forecast.
// Null values are left out.
func BuildSeries(t domain.Table, f *domain.Forecast, name domain.ChartName) (domain.ChartSeries, error) {
	spec, ok := domain.LookupChart(name)
	if !ok {
		return domain.ChartSeries{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	series := domain.ChartSeries{ChartSpec: spec}

	if spec.Column == "" {
		if f == nil {
			return domain.ChartSeries{}, ErrNoForecast
		}
		series.Points = make([]domain.ChartPoint, len(f.Points))
		for i, p := range f.Points {
			series.Points[i] = domain.ChartPoint{X: float64(p.Day), Y: p.FlowRate}
		}
		return series, nil
	}

	times, ok := t.Times()
	if !ok {
		return domain.ChartSeries{}, missingColumn(domain.ColumnTimestamp)
	}
	values, ok := t.Numbers(spec.Column)
	if !ok {
		return domain.ChartSeries{}, missingColumn(spec.Column)
	}
	series.TimeAxis = true
	series.Points = make([]domain.ChartPoint, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || times[i].IsZero() {
			continue
		}
		series.Points = append(series.Points, domain.ChartPoint{
			X:    float64(times[i].Unix()),
			Time: times[i],
			Y:    v,
		})
	}
	return series, nil
}
