package dataprocessing

import (
	"time"

	"flowpulse/pkg/contracts/domain"
)

// DateOnly truncates a timestamp to midnight of its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FilterRange keeps rows with start <= Timestamp <= end. Range ends are
// calendar dates at midnight, so readings later on the end day fall outside.
// A range that is not a complete pair returns the table unchanged, and rows
// with a null timestamp never match a complete pair.
func FilterRange(t domain.Table, r domain.DateRange) (domain.Table, error) {
	times, ok := t.Times()
	if !ok {
		return domain.Table{}, missingColumn(domain.ColumnTimestamp)
	}
	if !r.IsPair() {
		return t, nil
	}

	start, end := DateOnly(r.Start), DateOnly(r.End)
	rows := make([]int, 0, len(times))
	for i, ts := range times {
		if ts.IsZero() || ts.Before(start) || ts.After(end) {
			continue
		}
		rows = append(rows, i)
	}
	if len(rows) == len(times) {
		return t, nil
	}
	return t.Take(rows), nil
}
