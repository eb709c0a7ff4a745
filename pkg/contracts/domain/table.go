package domain

import (
	"math"
	"time"
)

// Column names the dashboard relies on
const (
	ColumnTimestamp   = "Timestamp"
	ColumnPressure    = "Pressure"
	ColumnTemperature = "Temperature"
	ColumnFlowRate    = "Flow_Rate"
	ColumnEntryName   = "Data_Entry_Name"
)

// ColumnKind identifies which value slice of a Column is populated
type ColumnKind string

const (
	KindTime    ColumnKind = "time"
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// Column is one named, typed column of a Table.
// Null numerics are NaN, null timestamps are the zero time.
type Column struct {
	Name    string      `json:"name"`
	Kind    ColumnKind  `json:"kind"`
	Times   []time.Time `json:"-"`
	Numbers []float64   `json:"-"`
	Texts   []string    `json:"-"`
}

// TimeColumn builds a time-typed column
func TimeColumn(name string, values []time.Time) Column {
	return Column{Name: name, Kind: KindTime, Times: values}
}

// NumericColumn builds a numeric column
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: KindNumeric, Numbers: values}
}

// TextColumn builds a text column
func TextColumn(name string, values []string) Column {
	return Column{Name: name, Kind: KindText, Texts: values}
}

// Len returns the number of values in the column
func (c Column) Len() int {
	switch c.Kind {
	case KindTime:
		return len(c.Times)
	case KindNumeric:
		return len(c.Numbers)
	default:
		return len(c.Texts)
	}
}

// Value returns the cell at row i as a JSON friendly value.
// NaN and zero timestamps come back as nil.
func (c Column) Value(i int) interface{} {
	switch c.Kind {
	case KindTime:
		if c.Times[i].IsZero() {
			return nil
		}
		return c.Times[i]
	case KindNumeric:
		if math.IsNaN(c.Numbers[i]) {
			return nil
		}
		return c.Numbers[i]
	default:
		return c.Texts[i]
	}
}

func (c Column) take(rows []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindTime:
		out.Times = make([]time.Time, len(rows))
		for i, r := range rows {
			out.Times[i] = c.Times[r]
		}
	case KindNumeric:
		out.Numbers = make([]float64, len(rows))
		for i, r := range rows {
			out.Numbers[i] = c.Numbers[r]
		}
	default:
		out.Texts = make([]string, len(rows))
		for i, r := range rows {
			out.Texts[i] = c.Texts[r]
		}
	}
	return out
}

// Table is a column-oriented set of readings from one upload.
//
// Tables are values: every transformation returns a new Table and never
// writes into the slices of its input, so a Table can be shared between
// goroutines once built.
type Table struct {
	Columns   []Column `json:"columns"`
	EntryName string   `json:"entry_name"`
	// Converted is set once Pressure and Temperature hold psi and °F.
	Converted bool `json:"converted"`
}

// NewTable assembles a table from columns of equal length
func NewTable(entryName string, columns ...Column) Table {
	return Table{Columns: columns, EntryName: entryName}
}

// Len returns the number of rows
func (t Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Empty reports whether the table has no rows
func (t Table) Empty() bool {
	return t.Len() == 0
}

// Index returns the position of the named column or -1
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists
func (t Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Column looks up a column by name
func (t Table) Column(name string) (Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// Numbers returns the values of a numeric column
func (t Table) Numbers(name string) ([]float64, bool) {
	c, ok := t.Column(name)
	if !ok || c.Kind != KindNumeric {
		return nil, false
	}
	return c.Numbers, true
}

// Times returns the Timestamp column when it is time typed
func (t Table) Times() ([]time.Time, bool) {
	c, ok := t.Column(ColumnTimestamp)
	if !ok || c.Kind != KindTime {
		return nil, false
	}
	return c.Times, true
}

// Names returns column names in order
func (t Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// NumericNames returns the names of numeric columns in order
func (t Table) NumericNames() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// Take returns a new table holding the given rows in the given order
func (t Table) Take(rows []int) Table {
	out := Table{EntryName: t.EntryName, Converted: t.Converted}
	out.Columns = make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c.take(rows)
	}
	return out
}

// Head returns the first n rows
func (t Table) Head(n int) Table {
	if n > t.Len() {
		n = t.Len()
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.Take(rows)
}

// With returns a copy of the table with col replacing the column of the
// same name, or appended when there is none.
func (t Table) With(col Column) Table {
	out := t
	out.Columns = make([]Column, len(t.Columns), len(t.Columns)+1)
	copy(out.Columns, t.Columns)
	if i := t.Index(col.Name); i >= 0 {
		out.Columns[i] = col
		return out
	}
	out.Columns = append(out.Columns, col)
	return out
}

// WithEntryName attaches the entry label to every row
func (t Table) WithEntryName(name string) Table {
	if len(t.Columns) == 0 {
		out := t
		out.EntryName = name
		return out
	}
	labels := make([]string, t.Len())
	for i := range labels {
		labels[i] = name
	}
	out := t.With(TextColumn(ColumnEntryName, labels))
	out.EntryName = name
	return out
}

// DateBounds returns the earliest and latest non-null timestamps
func (t Table) DateBounds() (min, max time.Time, ok bool) {
	times, has := t.Times()
	if !has {
		return time.Time{}, time.Time{}, false
	}
	for _, ts := range times {
		if ts.IsZero() {
			continue
		}
		if !ok || ts.Before(min) {
			min = ts
		}
		if !ok || ts.After(max) {
			max = ts
		}
		ok = true
	}
	return min, max, ok
}

// Records renders up to limit rows as maps keyed by column name.
// A negative limit renders every row.
func (t Table) Records(limit int) []map[string]interface{} {
	n := t.Len()
	if limit >= 0 && limit < n {
		n = limit
	}
	records := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]interface{}, len(t.Columns))
		for _, c := range t.Columns {
			rec[c.Name] = c.Value(i)
		}
		records[i] = rec
	}
	return records
}
