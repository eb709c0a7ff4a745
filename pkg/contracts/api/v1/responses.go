package api

import (
	"time"

	"flowpulse/pkg/contracts/domain"
)

// SessionResponse describes a session and its controls
type SessionResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Filename  string          `json:"filename,omitempty"`
	Rows      int             `json:"rows"`
	Columns   []string        `json:"columns"`
	Controls  ControlsPayload `json:"controls"`
}

// ControlsPayload is the wire form of domain.Controls
type ControlsPayload struct {
	EntryName string `json:"entry_name"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Period    string `json:"period"`
	JoinMode  string `json:"join_mode"`
}

// NewControlsPayload converts controls for the wire
func NewControlsPayload(c domain.Controls) ControlsPayload {
	p := ControlsPayload{
		EntryName: c.EntryName,
		Period:    c.Period.Label,
		JoinMode:  string(c.JoinMode),
	}
	if !c.Range.Start.IsZero() {
		p.StartDate = c.Range.Start.Format(DateLayout)
	}
	if !c.Range.End.IsZero() {
		p.EndDate = c.Range.End.Format(DateLayout)
	}
	return p
}

// TablePayload is a row-oriented rendering of a table
type TablePayload struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	Total   int                      `json:"total"`
}

// DateBounds are the first and last timestamps of the uploaded data; the
// date picker starts from them.
type DateBounds struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// SkippedFeature explains why a chart or the forecast is missing
type SkippedFeature struct {
	Feature string `json:"feature"`
	Reason  string `json:"reason"`
}

// ChartPayload is a chart series plus the URL of its PNG rendering
type ChartPayload struct {
	domain.ChartSeries
	ImageURL string `json:"image_url"`
}

// DashboardResponse is everything the dashboard page renders
type DashboardResponse struct {
	SessionID string           `json:"session_id"`
	Controls  ControlsPayload  `json:"controls"`
	Periods   []string         `json:"periods"`
	Preview   TablePayload     `json:"preview"`
	Bounds    *DateBounds      `json:"bounds,omitempty"`
	Resampled TablePayload     `json:"resampled"`
	Charts    []ChartPayload   `json:"charts"`
	Forecast  *domain.Forecast `json:"forecast,omitempty"`
	Skipped   []SkippedFeature `json:"skipped"`
	Message   string           `json:"message,omitempty"`
}
