package domain

import "time"

// ChartName identifies one of the dashboard charts
type ChartName string

const (
	ChartFlow        ChartName = "flow"
	ChartPressure    ChartName = "pressure"
	ChartTemperature ChartName = "temperature"
	ChartPrediction  ChartName = "prediction"
)

// ChartSpec describes how a chart is titled and which column feeds it
type ChartSpec struct {
	Name ChartName `json:"name"`
	// Column is empty for the prediction chart, which reads the forecast.
	Column      string `json:"column,omitempty"`
	Title       string `json:"title"`
	ReportTitle string `json:"report_title"`
	XLabel      string `json:"x_label"`
	YLabel      string `json:"y_label"`
	Color       string `json:"color"`
}

var chartSpecs = []ChartSpec{
	{
		Name:        ChartFlow,
		Column:      ColumnFlowRate,
		Title:       "Crude Oil Flow Rate Over Time (BPD)",
		ReportTitle: "Flow Rate Over Time (BPD)",
		XLabel:      "Timestamp",
		YLabel:      "Flow Rate (BPD)",
		Color:       "blue",
	},
	{
		Name:        ChartPressure,
		Column:      ColumnPressure,
		Title:       "Pressure Over Time (psi)",
		ReportTitle: "Pressure Over Time (psi)",
		XLabel:      "Timestamp",
		YLabel:      "Pressure (psi)",
		Color:       "green",
	},
	{
		Name:        ChartTemperature,
		Column:      ColumnTemperature,
		Title:       "Temperature Over Time (°F)",
		ReportTitle: "Temperature Over Time (°F)",
		XLabel:      "Timestamp",
		YLabel:      "Temperature (°F)",
		Color:       "red",
	},
	{
		Name:        ChartPrediction,
		Title:       "Predicted Flow Rate (Next 30 Days, BPD)",
		ReportTitle: "Predicted Flow Rate (Next 30 Days)",
		XLabel:      "Day",
		YLabel:      "Predicted Flow Rate (BPD)",
		Color:       "purple",
	},
}

// ChartSpecs returns every chart in report order
func ChartSpecs() []ChartSpec {
	out := make([]ChartSpec, len(chartSpecs))
	copy(out, chartSpecs)
	return out
}

// LookupChart finds a chart by name
func LookupChart(name ChartName) (ChartSpec, bool) {
	for _, s := range chartSpecs {
		if s.Name == name {
			return s, true
		}
	}
	return ChartSpec{}, false
}

// ChartPoint is one plotted value. Time is set on time axis charts,
// X always carries the plotted abscissa (unix seconds or day index).
type ChartPoint struct {
	X    float64   `json:"x"`
	Time time.Time `json:"time,omitempty"`
	Y    float64   `json:"y"`
}

// ChartSeries is the data behind one chart, null values removed
type ChartSeries struct {
	ChartSpec
	TimeAxis bool         `json:"time_axis"`
	Points   []ChartPoint `json:"points"`
}
