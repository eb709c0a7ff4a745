package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"flowpulse/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to out
func (w *CSVWriter) WriteCSV(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes a CSV file, creating its directory when needed
func (w *CSVWriter) WriteFile(path string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := w.WriteCSV(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// TableOptions turns a table into CSV rows. Bucket metadata is appended as
// Bucket_Start, Rows and Matched columns when buckets line up with the rows.
func TableOptions(t domain.Table, buckets []domain.Bucket) WriteOptions {
	withBuckets := len(buckets) > 0 && len(buckets) == t.Len()

	headers := t.Names()
	if withBuckets {
		headers = append(headers, "Bucket_Start", "Rows", "Matched")
	}

	records := make([][]string, t.Len())
	for i := range records {
		record := make([]string, 0, len(headers))
		for _, c := range t.Columns {
			switch c.Kind {
			case domain.KindTime:
				record = append(record, formatTimestamp(c.Times[i]))
			case domain.KindNumeric:
				record = append(record, formatFloat(c.Numbers[i]))
			default:
				record = append(record, c.Texts[i])
			}
		}
		if withBuckets {
			b := buckets[i]
			record = append(record, formatDate(b.Start), formatInt(b.Rows), formatInt(b.Matched))
		}
		records[i] = record
	}
	return WriteOptions{Headers: headers, Records: records, BOMPrefix: true}
}

// WriteTable writes a table as CSV to out
func (w *CSVWriter) WriteTable(out io.Writer, t domain.Table, buckets []domain.Bucket) error {
	return w.WriteCSV(out, TableOptions(t, buckets))
}
