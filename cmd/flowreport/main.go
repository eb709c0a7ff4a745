// Command flowreport runs the flow dashboard pipeline once over a readings
// file and writes the PDF report, optionally with the resampled CSV.
//
//	flowreport -in readings.xlsx -name "Meter A" -from 2024-01-01 -to 2024-06-30 \
//	    -period Semi-Annual -out report.pdf -csv resampled.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"flowpulse/internal/config"
	"flowpulse/internal/dataprocessing"
	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/exporter"
	"flowpulse/internal/files"
	"flowpulse/internal/infrastructure"
	"flowpulse/internal/middleware"
	api "flowpulse/pkg/contracts/api/v1"
	"flowpulse/pkg/contracts/domain"

	"go.opentelemetry.io/otel"
)

type options struct {
	in                string
	name              string
	from              string
	to                string
	period            string
	out               string
	csv               string
	legacyJoin        bool
	forecastResampled bool
}

// result is what one run produced
type result struct {
	Input   string
	Report  *domain.Report
	Rows    int
	Buckets int
	Skipped []*dataprocessing.FeatureSkip
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg.Logging.Output = "console"
	logger, _, err := infrastructure.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr, cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := run(ctx, opts, cfg, logger)
	if err != nil {
		logger.Error("Report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	printSummary(os.Stdout, opts, res)
}

func parseFlags(args []string, stderr io.Writer, cfg *config.Config) (options, error) {
	var opts options
	fs := flag.NewFlagSet("flowreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "readings file (.xlsx, .xls or .csv), or a directory to use its latest one")
	fs.StringVar(&opts.name, "name", "", "data entry name printed on the report")
	fs.StringVar(&opts.from, "from", "", "first day to include (YYYY-MM-DD)")
	fs.StringVar(&opts.to, "to", "", "last day to include (YYYY-MM-DD)")
	fs.StringVar(&opts.period, "period", cfg.Pipeline.DefaultPeriod, "comparison period: 3 Months, 4 Months, Semi-Annual or Annual")
	fs.StringVar(&opts.out, "out", domain.ReportFilename, "PDF output path")
	fs.StringVar(&opts.csv, "csv", "", "optional CSV output path for the resampled table")
	fs.BoolVar(&opts.legacyJoin, "legacy-join", cfg.JoinMode() == domain.JoinLegacy, "repeat bucket rows for matching original timestamps")
	fs.BoolVar(&opts.forecastResampled, "forecast-resampled", cfg.Pipeline.ForecastFromResampled, "fit the forecast on bucket means instead of filtered readings")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.in == "" {
		err := errors.New("-in is required")
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return options{}, err
	}
	return opts, nil
}

// controls validates the date and period flags the same way the HTTP API
// validates a controls request
func (o options) controls(defaults domain.Controls) (domain.Controls, error) {
	req := api.ControlsRequest{
		EntryName: &o.name,
		StartDate: o.from,
		EndDate:   o.to,
		Period:    o.period,
		JoinMode:  string(domain.JoinBucket),
	}
	if o.legacyJoin {
		req.JoinMode = string(domain.JoinLegacy)
	}
	if err := middleware.ValidateStruct(middleware.NewValidator(), req); err != nil {
		return domain.Controls{}, validationMessage(err)
	}
	return req.Controls(defaults), nil
}

func validationMessage(err error) error {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(details.Errors))
	for _, e := range details.Errors {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("invalid flags: %s", strings.Join(msgs, "; "))
}

func run(ctx context.Context, opts options, cfg *config.Config, logger *slog.Logger) (*result, error) {
	in, err := files.NewDiscovery(logger).ResolveInput(opts.in)
	if err != nil {
		return nil, err
	}
	if !dataprocessing.SupportedFormat(in) {
		return nil, fmt.Errorf("%s: %w", in, dataprocessing.ErrUnsupportedFormat)
	}
	controls, err := opts.controls(domain.Controls{
		Period:   cfg.Period(),
		JoinMode: cfg.JoinMode(),
	})
	if err != nil {
		return nil, err
	}

	raw, err := dataprocessing.NewParser(logger).ParseFile(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in, err)
	}
	table, err := dataprocessing.ConvertUnits(raw)
	if err != nil {
		return nil, fmt.Errorf("converting units: %w", err)
	}
	table = table.WithEntryName(controls.EntryName)

	source := dataprocessing.ForecastFromFiltered
	if opts.forecastResampled {
		source = dataprocessing.ForecastFromResampled
	}
	pipeline := dataprocessing.NewPipeline(logger, otel.Tracer(infrastructure.ServiceName),
		dataprocessing.PipelineOptions{ForecastSource: source})
	res, err := pipeline.Run(ctx, table, controls)
	if err != nil {
		return nil, fmt.Errorf("running pipeline: %w", err)
	}
	for _, skip := range res.Skipped() {
		logger.Warn("feature skipped",
			slog.String("feature", skip.Feature),
			slog.String("reason", skip.Err.Error()))
	}

	pdf := exporter.NewPDFExporter(logger, exporter.PDFOptions{
		Title:        cfg.Report.Title,
		ChartWidthMM: cfg.Report.ChartWidthMM,
		Compression:  cfg.Report.Compression,
	})
	report, err := pdf.Export(ctx, exporter.ReportInput{
		Table:     res.Resampled,
		Forecast:  res.Forecast,
		EntryName: controls.EntryName,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	if err := files.NewManager(nil, logger).WriteFile(opts.out, report.Content); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	logger.Info("report written", slog.String("path", opts.out), slog.Int("bytes", len(report.Content)))

	if opts.csv != "" {
		if err := exporter.NewCSVWriter(logger).WriteFile(opts.csv, exporter.TableOptions(res.Resampled, res.Buckets)); err != nil {
			return nil, fmt.Errorf("writing csv: %w", err)
		}
	}

	return &result{
		Input:   in,
		Report:  report,
		Rows:    res.Filtered.Len(),
		Buckets: res.Resampled.Len(),
		Skipped: res.Skipped(),
	}, nil
}

func printSummary(w io.Writer, opts options, res *result) {
	fmt.Fprintf(w, "Input:    %s\n", res.Input)
	fmt.Fprintf(w, "Report:   %s\n", opts.out)
	if opts.csv != "" {
		fmt.Fprintf(w, "CSV:      %s\n", opts.csv)
	}
	fmt.Fprintf(w, "Readings: %d\n", res.Rows)
	fmt.Fprintf(w, "Buckets:  %d\n", res.Buckets)
	for _, line := range res.Report.Lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
	for _, skip := range res.Skipped {
		fmt.Fprintf(w, "Skipped %s: %v\n", skip.Feature, skip.Err)
	}
}
