package dataprocessing

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flowpulse/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// workbook renders rows into an in-memory xlsx, header first
func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

// readingsTable builds a converted-ready table of daily readings
func readingsTable(times []time.Time, pressure, temperature, flow []float64) domain.Table {
	return domain.NewTable("Meter A",
		domain.TimeColumn(domain.ColumnTimestamp, times),
		domain.NumericColumn(domain.ColumnPressure, pressure),
		domain.NumericColumn(domain.ColumnTemperature, temperature),
		domain.NumericColumn(domain.ColumnFlowRate, flow),
	).WithEntryName("Meter A")
}

// sixMonthsDaily mirrors the end-to-end scenario: daily readings from
// 1 January to 30 June with pressure in [1,2] bar, temperature in [10,20] °C
// and flow linear in both.
func sixMonthsDaily() (times []time.Time, pressure, temperature, flow []float64) {
	start := date(2024, time.January, 1)
	end := date(2024, time.June, 30)
	days := int(end.Sub(start).Hours()/24) + 1
	for i := 0; i < days; i++ {
		frac := float64(i) / float64(days-1)
		p := 1 + frac
		// A periodic term keeps temperature from being collinear with pressure.
		c := 15 + 5*math.Sin(float64(i)/7)
		times = append(times, start.AddDate(0, 0, i))
		pressure = append(pressure, p)
		temperature = append(temperature, c)
		flow = append(flow, 1000+200*p+10*c)
	}
	return times, pressure, temperature, flow
}

func nan() float64 { return math.NaN() }
