// Package api contains the HTTP contract of the flow dashboard.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"flowpulse/pkg/contracts/domain"
)

// DateLayout is the calendar date format used by the date picker.
const DateLayout = "2006-01-02"

// CreateSessionRequest opens a dashboard session
type CreateSessionRequest struct {
	EntryName string `json:"entry_name" validate:"max=200"`
}

// UploadRequest carries the non-file fields of an upload form
type UploadRequest struct {
	EntryName *string `json:"entry_name,omitempty" validate:"omitempty,max=200"`
	Filename  string  `json:"filename" validate:"required,filename,readings"`
}

// ControlsRequest replaces the dashboard controls of a session. A nil
// EntryName keeps the current label. A single date, or none, disables
// date filtering.
type ControlsRequest struct {
	EntryName *string `json:"entry_name,omitempty" validate:"omitempty,max=200"`
	StartDate string  `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string  `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Period    string  `json:"period,omitempty" validate:"omitempty,period"`
	JoinMode  string  `json:"join_mode,omitempty" validate:"omitempty,oneof=bucket legacy"`
}

// DateRange parses the request dates. Call after validation.
func (r ControlsRequest) DateRange() domain.DateRange {
	var dr domain.DateRange
	if t, err := time.Parse(DateLayout, r.StartDate); err == nil {
		dr.Start = t
	}
	if t, err := time.Parse(DateLayout, r.EndDate); err == nil {
		dr.End = t
	}
	return dr
}

// Controls merges the request into the current controls
func (r ControlsRequest) Controls(current domain.Controls) domain.Controls {
	c := domain.Controls{
		EntryName: current.EntryName,
		Range:     r.DateRange(),
		Period:    current.Period,
		JoinMode:  current.JoinMode,
	}
	if r.EntryName != nil {
		c.EntryName = *r.EntryName
	}
	if r.Period != "" {
		c.Period = domain.ParsePeriod(r.Period)
	}
	if r.JoinMode != "" {
		c.JoinMode = domain.ParseJoinMode(r.JoinMode)
	}
	return c
}
