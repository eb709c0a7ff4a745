package dataprocessing

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"flowpulse/pkg/contracts/domain"
)

// ColumnMean averages the non-null values of a numeric column. ok is false
// when the column is absent or holds no values.
func ColumnMean(t domain.Table, name string) (mean float64, ok bool) {
	values, has := t.Numbers(name)
	if !has {
		return 0, false
	}
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return 0, false
	}
	return stat.Mean(present, nil), true
}

// Summarize computes the report statistics of a table
func Summarize(t domain.Table) domain.Summary {
	s := domain.Summary{Rows: t.Len(), EntryName: t.EntryName}
	s.From, s.To, s.HasRange = t.DateBounds()

	avg := func(name string) *float64 {
		if m, ok := ColumnMean(t, name); ok {
			return &m
		}
		return nil
	}
	s.AvgFlowRate = avg(domain.ColumnFlowRate)
	s.AvgPressure = avg(domain.ColumnPressure)
	s.AvgTemperature = avg(domain.ColumnTemperature)
	return s
}
