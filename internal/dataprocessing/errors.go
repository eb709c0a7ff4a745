package dataprocessing

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is matched by every *MissingColumnError
	ErrMissingColumn = errors.New("missing column")
	// ErrInsufficientData means fewer than two complete rows remain for a fit
	ErrInsufficientData = errors.New("insufficient data")
	// ErrAlreadyConverted guards against converting units twice
	ErrAlreadyConverted = errors.New("units already converted")
	// ErrUnsupportedFormat is returned for uploads that are not xlsx, xls or csv
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnknownChart is returned for chart names the dashboard does not draw
	ErrUnknownChart = errors.New("unknown chart")
)

// MissingColumnError names the expected column that was absent
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

// Is makes errors.Is(err, ErrMissingColumn) hold
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

func missingColumn(name string) error {
	return &MissingColumnError{Column: name}
}

// IngestionError wraps anything that makes an upload unusable
type IngestionError struct {
	Filename string
	Err      error
}

func (e *IngestionError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("error reading the file: %v", e.Err)
	}
	return fmt.Sprintf("error reading the file %s: %v", e.Filename, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// IsIngestionError reports whether err is or wraps an *IngestionError
func IsIngestionError(err error) bool {
	var ie *IngestionError
	return errors.As(err, &ie)
}

// FeatureSkip records a dashboard feature that could not be produced
type FeatureSkip struct {
	Feature string
	Err     error
}

func (s *FeatureSkip) Error() string {
	return fmt.Sprintf("%s skipped: %v", s.Feature, s.Err)
}

func (s *FeatureSkip) Unwrap() error {
	return s.Err
}

// ErrNoForecast is reported for the prediction chart when no model was fitted
var ErrNoForecast = errors.New("no forecast available")
