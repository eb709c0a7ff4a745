package domain

import (
	"time"
)

const (
	// ReportFilename is the suggested download name of an exported report
	ReportFilename = "crude_flow_report.pdf"
	// ReportTitle heads every exported report
	ReportTitle = "Crude Oil Flow Analysis Report"
	// ReportUnitsNote is printed under the charts
	ReportUnitsNote = "Note: Pressure is shown in psi, Temperature in °F, Flow Rate in BPD."
)

// Summary holds the report statistics of a resampled table.
// Averages are nil when the column is absent or entirely null.
type Summary struct {
	Rows           int       `json:"rows"`
	From           time.Time `json:"from,omitempty"`
	To             time.Time `json:"to,omitempty"`
	HasRange       bool      `json:"has_range"`
	AvgFlowRate    *float64  `json:"avg_flow_rate"`
	AvgPressure    *float64  `json:"avg_pressure"`
	AvgTemperature *float64  `json:"avg_temperature"`
	EntryName      string    `json:"entry_name"`
}

// Report is an ephemeral exported document, rebuilt on every request
type Report struct {
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	Content     []byte      `json:"-"`
	Lines       []string    `json:"lines"`
	Charts      []ChartName `json:"charts"`
	GeneratedAt time.Time   `json:"generated_at"`
}
