package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/sync/errgroup"

	"flowpulse/internal/dataprocessing"
	"flowpulse/pkg/contracts/domain"
)

// PDFOptions configures report layout
type PDFOptions struct {
	Title        string
	ChartWidthMM float64
	Compression  bool
}

// DefaultPDFOptions is the standard A4 report layout
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		Title:        domain.ReportTitle,
		ChartWidthMM: 180,
		Compression:  true,
	}
}

// ReportInput is what a report is built from
type ReportInput struct {
	// Table is the resampled table.
	Table     domain.Table
	Forecast  *domain.Forecast
	EntryName string
}

// PDFExporter renders analysis reports into memory
type PDFExporter struct {
	charts *ChartRenderer
	opts   PDFOptions
	logger *slog.Logger
	now    func() time.Time
}

// NewPDFExporter creates a report exporter
func NewPDFExporter(logger *slog.Logger, opts PDFOptions) *PDFExporter {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultPDFOptions()
	if opts.Title == "" {
		opts.Title = defaults.Title
	}
	if opts.ChartWidthMM <= 0 {
		opts.ChartWidthMM = defaults.ChartWidthMM
	}
	return &PDFExporter{
		charts: NewChartRenderer(),
		opts:   opts,
		logger: logger.With(slog.String("component", "pdf_exporter")),
		now:    time.Now,
	}
}

// WithClock replaces the generation clock
func (e *PDFExporter) WithClock(now func() time.Time) *PDFExporter {
	e.now = now
	return e
}

// Charts renders every chart the input supports, in report order. Charts
// whose column or forecast is missing are left out.
func (e *PDFExporter) Charts(ctx context.Context, in ReportInput) ([]domain.ChartName, [][]byte, error) {
	type job struct {
		spec   domain.ChartSpec
		series domain.ChartSeries
	}
	var jobs []job
	for _, spec := range domain.ChartSpecs() {
		series, err := dataprocessing.BuildSeries(in.Table, in.Forecast, spec.Name)
		if err != nil {
			e.logger.DebugContext(ctx, "chart left out of report",
				slog.String("chart", string(spec.Name)),
				slog.String("reason", err.Error()))
			continue
		}
		jobs = append(jobs, job{spec: spec, series: series})
	}

	images := make([][]byte, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := e.charts.Render(j.series, j.spec.ReportTitle)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	names := make([]domain.ChartName, len(jobs))
	for i, j := range jobs {
		names[i] = j.spec.Name
	}
	return names, images, nil
}

// Export builds the report document. An empty table yields only the title
// and the generation line.
func (e *PDFExporter) Export(ctx context.Context, in ReportInput) (*domain.Report, error) {
	generatedAt := e.now()
	report := &domain.Report{
		Filename:    domain.ReportFilename,
		ContentType: "application/pdf",
		GeneratedAt: generatedAt,
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.opts.Compression)
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(e.opts.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	line := func(text, align string) {
		pdf.CellFormat(200, 10, tr(text), "", 1, align, false, 0, "")
		report.Lines = append(report.Lines, text)
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	line(e.opts.Title, "C")
	pdf.Ln(10)

	if !in.Table.Empty() {
		summary := dataprocessing.Summarize(in.Table)
		entry := in.EntryName
		if entry == "" {
			entry = summary.EntryName
		}
		line(fmt.Sprintf("Data from %s to %s", formatDate(summary.From), formatDate(summary.To)), "")
		line(fmt.Sprintf("Avg Flow Rate: %s BPD", formatAverage(summary.AvgFlowRate)), "")
		line(fmt.Sprintf("Avg Pressure: %s psi", formatAverage(summary.AvgPressure)), "")
		line(fmt.Sprintf("Avg Temperature: %s °F", formatAverage(summary.AvgTemperature)), "")
		line(fmt.Sprintf("Data Entry Name: %s", entry), "")
		pdf.Ln(5)

		names, images, err := e.Charts(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("render charts: %w", err)
		}
		for i, name := range names {
			imageName := "chart-" + string(name)
			opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
			pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(images[i]))
			pdf.ImageOptions(imageName, 10, 0, e.opts.ChartWidthMM, 0, true, opts, 0, "")
			pdf.Ln(10)
		}
		report.Charts = names

		pdf.SetFont("Arial", "I", 11)
		line(domain.ReportUnitsNote, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "I", 10)
	line("Generated on "+generatedAt.Format("2006-01-02 15:04:05"), "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("write pdf: empty document")
	}
	report.Content = buf.Bytes()

	e.logger.InfoContext(ctx, "report exported",
		slog.Int("bytes", len(report.Content)),
		slog.Int("charts", len(report.Charts)),
		slog.Bool("empty", in.Table.Empty()))
	return report, nil
}
