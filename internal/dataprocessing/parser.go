package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"flowpulse/pkg/contracts/domain"
)

// Supported upload extensions
const (
	FormatXLSX = ".xlsx"
	FormatXLS  = ".xls"
	FormatCSV  = ".csv"
)

// timestampLayouts are tried in order for text timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006",
	"02-Jan-2006",
	"20060102150405",
	"20060102",
}

// Parser turns uploaded spreadsheets into tables
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger uses slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "parser"))}
}

// SupportedFormat reports whether the filename has an extension Parse reads
func SupportedFormat(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case FormatXLSX, FormatXLS, FormatCSV:
		return true
	}
	return false
}

// ParseFile reads a spreadsheet from disk
func (p *Parser) ParseFile(ctx context.Context, path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, &IngestionError{Filename: filepath.Base(path), Err: err}
	}
	defer f.Close()
	return p.Parse(ctx, f, filepath.Base(path))
}

// Parse reads an uploaded spreadsheet. The first row is the header; the
// Timestamp column is typed as time, columns whose every non-empty cell is a
// number become numeric and everything else is kept as text. Every failure is
// an *IngestionError.
func (p *Parser) Parse(ctx context.Context, r io.Reader, filename string) (domain.Table, error) {
	fail := func(err error) (domain.Table, error) {
		p.logger.WarnContext(ctx, "ingestion failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return domain.Table{}, &IngestionError{Filename: filename, Err: err}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fail(fmt.Errorf("read upload: %w", err))
	}

	var grid [][]string
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	case FormatCSV:
		grid, err = readCSV(data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return fail(err)
	}

	// Only spreadsheet cells carry Excel serial dates; a bare number in a
	// CSV is not one.
	table, err := buildTable(grid, ext != FormatCSV)
	if err != nil {
		return fail(err)
	}

	p.logger.InfoContext(ctx, "spreadsheet parsed",
		slog.String("filename", filename),
		slog.String("format", ext),
		slog.Int("rows", table.Len()),
		slog.Any("columns", table.Names()))
	return table, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	// Raw values keep date cells as serial numbers instead of display strings.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readXLS(data []byte) (rows [][]string, err error) {
	// The BIFF reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("open workbook: malformed xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	// Text comes from the reader; numbers and dates from the raw records,
	// since the reader renders date formatted cells as "2006.01".
	raw, err := scanBIFFSheet(data)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return overlayXLS(raw,
		func(i, j int) string { return sheet.Row(i).Col(j) },
		func(i int) int { return sheet.Row(i).LastCol() },
	), nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// buildTable types the columns of a raw cell grid. With serialDates numeric
// Timestamp cells are read as Excel serial dates.
func buildTable(grid [][]string, serialDates bool) (domain.Table, error) {
	headerIdx := -1
	for i, row := range grid {
		if !blankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return domain.Table{}, errors.New("no header row found")
	}

	header := headerNames(grid[headerIdx])
	var body [][]string
	for _, row := range grid[headerIdx+1:] {
		if blankRow(row) {
			continue
		}
		body = append(body, row)
	}

	columns := make([]domain.Column, len(header))
	for j, name := range header {
		cells := make([]string, len(body))
		for i, row := range body {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}

		if name == domain.ColumnTimestamp {
			times, err := parseTimestamps(cells, serialDates)
			if err != nil {
				return domain.Table{}, err
			}
			columns[j] = domain.TimeColumn(name, times)
			continue
		}
		if nums, ok := parseNumbers(cells); ok {
			columns[j] = domain.NumericColumn(name, nums)
			continue
		}
		columns[j] = domain.TextColumn(name, cells)
	}
	return domain.NewTable("", columns...), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// headerNames names blank headers by position and suffixes duplicates
func headerNames(row []string) []string {
	seen := make(map[string]int, len(row))
	names := make([]string, len(row))
	for i, raw := range row {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func parseNumbers(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseTimestamps(cells []string, serialDates bool) ([]time.Time, error) {
	parse := ParseTimestamp
	if serialDates {
		parse = ParseCellTimestamp
	}
	out := make([]time.Time, len(cells))
	for i, c := range cells {
		if c == "" {
			continue
		}
		ts, err := parse(c)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out[i] = ts
	}
	return out, nil
}

// Excel serials run from 1900-01-01 to 9999-12-31
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// monthOnly matches the "2006.01" rendering some readers give date cells
var monthOnly = regexp.MustCompile(`^(19|20)\d{2}\.(0[1-9]|1[0-2])$`)

// ParseCellTimestamp parses a spreadsheet cell: an Excel serial date in the
// 1900 system, or text in one of the layouts ParseTimestamp accepts.
func ParseCellTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if monthOnly.MatchString(s) {
		return time.Time{}, fmt.Errorf("timestamp %q has no day; store the column as a date", s)
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < minExcelSerial || serial > maxExcelSerial {
		return ParseTimestamp(s)
	}
	ts, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid excel date %q: %w", s, err)
	}
	return ts.UTC(), nil
}

// ParseTimestamp parses text in one of the common layouts. A zone offset is
// dropped: readings keep the wall clock they were logged at, stored as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return wallClock(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func wallClock(ts time.Time) time.Time {
	y, m, d := ts.Date()
	h, mi, sec := ts.Clock()
	return time.Date(y, m, d, h, mi, sec, ts.Nanosecond(), time.UTC)
}
