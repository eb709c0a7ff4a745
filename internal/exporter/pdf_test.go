package exporter

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/dataprocessing"
	"flowpulse/pkg/contracts/domain"
)

var fixedNow = time.Date(2024, 7, 1, 9, 30, 15, 0, time.UTC)

func newTestExporter() *PDFExporter {
	opts := DefaultPDFOptions()
	opts.Compression = false
	return NewPDFExporter(nil, opts).WithClock(func() time.Time { return fixedNow })
}

// halfYearResult runs the pipeline over six months of daily readings:
// pressure in [1,2] bar, temperature in [10,20] °C, flow linear in both.
func halfYearResult(t *testing.T) (*dataprocessing.Result, domain.Table) {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	const days = 182
	var (
		times                 []time.Time
		pressure, temp, flows []float64
	)
	for i := 0; i < days; i++ {
		frac := float64(i) / float64(days-1)
		p := 1 + frac
		c := 15 + 5*math.Cos(float64(i)/5)
		times = append(times, start.AddDate(0, 0, i))
		pressure = append(pressure, p)
		temp = append(temp, c)
		flows = append(flows, 800+150*p+12*c)
	}
	raw := domain.NewTable("Meter A",
		domain.TimeColumn(domain.ColumnTimestamp, times),
		domain.NumericColumn(domain.ColumnPressure, pressure),
		domain.NumericColumn(domain.ColumnTemperature, temp),
		domain.NumericColumn(domain.ColumnFlowRate, flows),
	).WithEntryName("Meter A")
	converted, err := dataprocessing.ConvertUnits(raw)
	require.NoError(t, err)

	res, err := dataprocessing.NewPipeline(nil, nil, dataprocessing.PipelineOptions{}).
		Run(context.Background(), converted, domain.Controls{EntryName: "Meter A", Period: domain.PeriodSemiAnnual})
	require.NoError(t, err)
	return res, converted
}

func TestPDFExporterHalfYearScenario(t *testing.T) {
	res, converted := halfYearResult(t)
	require.Equal(t, 1, res.Resampled.Len())
	require.NotNil(t, res.Forecast)
	require.Len(t, res.Forecast.Points, 30)

	report, err := newTestExporter().Export(context.Background(), ReportInput{
		Table:     res.Resampled,
		Forecast:  res.Forecast,
		EntryName: "Meter A",
	})
	require.NoError(t, err)

	assert.Equal(t, "crude_flow_report.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, bytes.HasPrefix(report.Content, []byte("%PDF-")))
	assert.Equal(t, []domain.ChartName{
		domain.ChartFlow, domain.ChartPressure, domain.ChartTemperature, domain.ChartPrediction,
	}, report.Charts)
	assert.GreaterOrEqual(t, bytes.Count(report.Content, []byte("/Subtype /Image")), 4)

	avg := func(col string) string {
		m, ok := dataprocessing.ColumnMean(converted, col)
		require.True(t, ok)
		return fmt.Sprintf("%.2f", m)
	}
	assert.Equal(t, []string{
		"Crude Oil Flow Analysis Report",
		"Data from 2024-06-30 to 2024-06-30",
		"Avg Flow Rate: " + avg(domain.ColumnFlowRate) + " BPD",
		"Avg Pressure: " + avg(domain.ColumnPressure) + " psi",
		"Avg Temperature: " + avg(domain.ColumnTemperature) + " °F",
		"Data Entry Name: Meter A",
		"Note: Pressure is shown in psi, Temperature in °F, Flow Rate in BPD.",
		"Generated on 2024-07-01 09:30:15",
	}, report.Lines)
	assert.Equal(t, "Avg Pressure: 21.76 psi", report.Lines[3], "1.5 bar mean")
	assert.Contains(t, string(report.Content), "Generated on 2024-07-01 09:30:15")
}

func TestPDFExporterEmptyTable(t *testing.T) {
	report, err := newTestExporter().Export(context.Background(), ReportInput{Table: domain.Table{}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Crude Oil Flow Analysis Report", "Generated on 2024-07-01 09:30:15"}, report.Lines)
	assert.Empty(t, report.Charts)
	assert.NotContains(t, string(report.Content), "/Subtype /Image")
	assert.Contains(t, string(report.Content), "Crude Oil Flow Analysis Report")
	assert.Equal(t, fixedNow, report.GeneratedAt)
}

func TestPDFExporterSkipsMissingCharts(t *testing.T) {
	table := domain.NewTable("Meter C",
		domain.TimeColumn(domain.ColumnTimestamp, []time.Time{
			time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		}),
		domain.NumericColumn(domain.ColumnPressure, []float64{20, 25}),
	)

	report, err := newTestExporter().Export(context.Background(), ReportInput{Table: table})
	require.NoError(t, err)

	assert.Equal(t, []domain.ChartName{domain.ChartPressure}, report.Charts)
	assert.Contains(t, report.Lines, "Avg Flow Rate: n/a BPD")
	assert.Contains(t, report.Lines, "Avg Pressure: 22.50 psi")
	assert.Contains(t, report.Lines, "Data Entry Name: Meter C", "falls back to the table label")
}

func TestPDFExporterCancelled(t *testing.T) {
	res, _ := halfYearResult(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExporter().Export(ctx, ReportInput{Table: res.Resampled, Forecast: res.Forecast})
	assert.ErrorIs(t, err, context.Canceled)
}
