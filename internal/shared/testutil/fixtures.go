package testutil

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// Reading is one row of a flow workbook: pressure in bar, temperature in °C.
type Reading struct {
	Timestamp   time.Time
	Pressure    float64
	Temperature float64
	FlowRate    float64
}

// ReadingHeaders is the header row of a well-formed workbook.
var ReadingHeaders = []string{"Timestamp", "Pressure", "Temperature", "Flow_Rate"}

// DailyReadings returns one reading per day starting at start. Pressure
// ramps from 1 to 2 bar over the run, temperature oscillates around 15 °C
// and flow is an exact linear blend of both.
func DailyReadings(start time.Time, days int) []Reading {
	readings := make([]Reading, days)
	for i := range readings {
		p := 1 + float64(i)/float64(days)
		c := 15 + 5*math.Sin(float64(i)/7)
		readings[i] = Reading{
			Timestamp:   start.AddDate(0, 0, i),
			Pressure:    p,
			Temperature: c,
			FlowRate:    1000 + 200*p + 10*c,
		}
	}
	return readings
}

// HalfYear is 182 daily readings from 2024-01-01 through 2024-06-30.
func HalfYear() []Reading {
	return DailyReadings(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 182)
}

func (r Reading) row() []interface{} {
	return []interface{}{r.Timestamp, r.Pressure, r.Temperature, r.FlowRate}
}

// Workbook encodes readings as an .xlsx file with a single sheet.
func Workbook(t testing.TB, readings []Reading) []byte {
	t.Helper()
	rows := make([][]interface{}, 0, len(readings)+1)
	header := make([]interface{}, len(ReadingHeaders))
	for i, h := range ReadingHeaders {
		header[i] = h
	}
	rows = append(rows, header)
	for _, r := range readings {
		rows = append(rows, r.row())
	}
	return WorkbookRows(t, rows)
}

// WorkbookRows encodes arbitrary rows as an .xlsx file, for malformed inputs.
func WorkbookRows(t testing.TB, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// CSV encodes readings as comma separated text with ISO timestamps.
func CSV(t testing.TB, readings []Reading) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{ReadingHeaders}
	for _, r := range readings {
		records = append(records, []string{
			r.Timestamp.Format("2006-01-02 15:04:05"),
			formatFloat(r.Pressure),
			formatFloat(r.Temperature),
			formatFloat(r.FlowRate),
		})
	}
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return buf.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
