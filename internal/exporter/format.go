package exporter

import (
	"fmt"
	"math"
	"time"
)

// formatFloat formats a value with exactly 2 decimal places; null is empty
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return fmt.Sprintf("%.2f", f)
}

// formatAverage renders a summary average the way the report prints it
func formatAverage(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format("2006-01-02")
}

// formatTimestamp keeps the time of day only when there is one
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
