package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"flowpulse/internal/dataprocessing"
	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/exporter"
	"flowpulse/internal/infrastructure"
	"flowpulse/pkg/contracts/domain"
)

// NoDataMessage is shown while a session has no readings
const NoDataMessage = "Please upload a valid Excel file to proceed."

// SessionServiceConfig holds the defaults a new session starts from
type SessionServiceConfig struct {
	Defaults domain.Controls
	Report   exporter.PDFOptions
}

// Dashboard is one pipeline run over a session snapshot
type Dashboard struct {
	Session Session
	Result  *dataprocessing.Result
}

// ChartUnavailable explains why a chart has no series. A forecast skipped
// for too few readings is reported as insufficient data.
func (d *Dashboard) ChartUnavailable(name domain.ChartName) *apierrors.APIError {
	reason := d.Result.SkipFor(dataprocessing.ChartFeature(name))
	if reason == nil {
		reason = ErrNoData
	}
	if name == domain.ChartPrediction {
		if fit := d.Result.SkipFor(dataprocessing.FeatureForecast); errors.Is(fit, dataprocessing.ErrInsufficientData) {
			reason = apierrors.NewInsufficientDataError("the forecast needs at least two complete readings", fit)
		}
	}
	return apierrors.ChartUnavailable(string(name), reason)
}

// SessionService drives the dashboard of every session. Each call works on
// a snapshot of its session, so concurrent sessions never share state.
type SessionService struct {
	store    *SessionStore
	parser   *dataprocessing.Parser
	pipeline *dataprocessing.Pipeline
	charts   *exporter.ChartRenderer
	pdf      *exporter.PDFExporter
	csv      *exporter.CSVWriter
	defaults domain.Controls
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewSessionService wires the parser, pipeline and exporters around a store
func NewSessionService(store *SessionStore, pipeline *dataprocessing.Pipeline, cfg SessionServiceConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	if pipeline == nil {
		pipeline = dataprocessing.NewPipeline(logger, nil, dataprocessing.PipelineOptions{})
	}
	if cfg.Defaults.Period.Months == 0 {
		cfg.Defaults.Period = domain.PeriodQuarter
	}
	if cfg.Defaults.JoinMode == "" {
		cfg.Defaults.JoinMode = domain.JoinBucket
	}
	return &SessionService{
		store:    store,
		parser:   dataprocessing.NewParser(logger),
		pipeline: pipeline,
		charts:   exporter.NewChartRenderer(),
		pdf:      exporter.NewPDFExporter(logger, cfg.Report),
		csv:      exporter.NewCSVWriter(logger),
		defaults: cfg.Defaults,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "session_service")),
	}
}

// WithClock replaces the report generation clock
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.pdf.WithClock(now)
	return s
}

// Defaults returns the controls new sessions start with
func (s *SessionService) Defaults() domain.Controls {
	return s.defaults
}

// Create opens a session. An empty entry name keeps the default label.
func (s *SessionService) Create(ctx context.Context, entryName string) (Session, error) {
	controls := s.defaults
	if entryName != "" {
		controls.EntryName = entryName
	}
	sess, err := s.store.Create(ctx, controls)
	if err != nil {
		if errors.Is(err, ErrTooManySessions) {
			return Session{}, apierrors.ErrServiceUnavailable
		}
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "session opened", slog.String("session_id", sess.ID))
	return sess, nil
}

// Get returns a snapshot of a session
func (s *SessionService) Get(ctx context.Context, id string) (Session, error) {
	sess, err := s.store.Get(ctx, id)
	return sess, s.storeError(err)
}

// Delete closes a session
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.storeError(s.store.Delete(ctx, id))
}

// Upload ingests a readings file into a session and converts its units.
// Any failure empties the session table, so stale readings never outlive
// a rejected upload. entryName, when set, relabels the session.
func (s *SessionService) Upload(ctx context.Context, id, filename string, r io.Reader, entryName *string) (Session, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return Session{}, s.storeError(err)
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	table, err := s.ingest(ctx, filename, r)
	infrastructure.RecordUpload(ctx, s.metrics, format, table.Len(), err)

	sess, updateErr := s.store.Update(ctx, id, func(sess *Session) error {
		if entryName != nil {
			sess.Controls.EntryName = *entryName
		}
		if err != nil {
			sess.Table = domain.Table{}
			sess.Filename = ""
			return nil
		}
		sess.Table = table
		sess.Filename = filename
		return nil
	})
	if updateErr != nil {
		return Session{}, s.storeError(updateErr)
	}
	if err != nil {
		return Session{}, err
	}

	s.logger.InfoContext(ctx, "readings uploaded",
		slog.String("session_id", id),
		slog.String("filename", filename),
		slog.Int("rows", table.Len()))
	return sess, nil
}

func (s *SessionService) ingest(ctx context.Context, filename string, r io.Reader) (domain.Table, error) {
	if !dataprocessing.SupportedFormat(filename) {
		return domain.Table{}, apierrors.ErrUnsupportedFormat
	}
	raw, err := s.parser.Parse(ctx, r, filename)
	if err != nil {
		return domain.Table{}, apierrors.NewIngestionError("the uploaded file could not be read", err).
			WithContext("filename", filename)
	}
	converted, err := dataprocessing.ConvertUnits(raw)
	if err != nil {
		var missing *dataprocessing.MissingColumnError
		if errors.As(err, &missing) {
			return domain.Table{}, apierrors.NewMissingColumnError(missing.Column, err).
				WithContext("filename", filename)
		}
		return domain.Table{}, apierrors.NewIngestionError("unit conversion failed", err)
	}
	return converted, nil
}

// UpdateControls replaces the dashboard controls of a session
func (s *SessionService) UpdateControls(ctx context.Context, id string, controls domain.Controls) (Session, error) {
	if controls.Period.Months == 0 {
		controls.Period = s.defaults.Period
	}
	if controls.JoinMode == "" {
		controls.JoinMode = s.defaults.JoinMode
	}
	sess, err := s.store.Update(ctx, id, func(sess *Session) error {
		sess.Controls = controls
		return nil
	})
	if err != nil {
		return Session{}, s.storeError(err)
	}
	s.logger.DebugContext(ctx, "controls updated",
		slog.String("session_id", id),
		slog.String("period", controls.Period.Label),
		slog.String("join_mode", string(controls.JoinMode)),
		slog.Bool("date_filter", controls.Range.IsPair()))
	return sess, nil
}

// Dashboard recomputes everything the dashboard shows for a session
func (s *SessionService) Dashboard(ctx context.Context, id string) (*Dashboard, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	res, err := s.run(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Session: sess, Result: res}, nil
}

func (s *SessionService) run(ctx context.Context, sess Session) (*dataprocessing.Result, error) {
	table := sess.Table.WithEntryName(sess.Controls.EntryName)
	res, err := s.pipeline.Run(ctx, table, sess.Controls)
	if err != nil {
		infrastructure.RecordPipelineRun(ctx, s.metrics, sess.Controls.Period.Code, 0, nil, err)
		return nil, err
	}
	skipped := make([]string, 0, len(res.Skipped()))
	for _, skip := range res.Skipped() {
		skipped = append(skipped, skip.Feature)
	}
	infrastructure.RecordPipelineRun(ctx, s.metrics, sess.Controls.Period.Code, res.Duration, skipped, nil)
	return res, nil
}

// Chart renders one dashboard chart as PNG
func (s *SessionService) Chart(ctx context.Context, id string, name domain.ChartName) ([]byte, error) {
	spec, ok := domain.LookupChart(name)
	if !ok {
		return nil, apierrors.ErrChartNotFound
	}
	dash, err := s.Dashboard(ctx, id)
	if err != nil {
		return nil, err
	}
	series, ok := dash.Result.SeriesFor(spec.Name)
	if !ok {
		return nil, dash.ChartUnavailable(spec.Name)
	}
	img, err := s.charts.Render(series, "")
	infrastructure.RecordExport(ctx, s.metrics, "png", len(img), err)
	if err != nil {
		return nil, apierrors.NewRenderError("chart rendering failed", err).
			WithContext("chart", string(spec.Name))
	}
	return img, nil
}

// Report builds the PDF report of a session
func (s *SessionService) Report(ctx context.Context, id string) (*domain.Report, error) {
	dash, err := s.Dashboard(ctx, id)
	if err != nil {
		return nil, err
	}
	report, err := s.pdf.Export(ctx, exporter.ReportInput{
		Table:     dash.Result.Resampled,
		Forecast:  dash.Result.Forecast,
		EntryName: dash.Session.Controls.EntryName,
	})
	if err != nil {
		infrastructure.RecordExport(ctx, s.metrics, "pdf", 0, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apierrors.NewRenderError("report rendering failed", err)
	}
	infrastructure.RecordExport(ctx, s.metrics, "pdf", len(report.Content), nil)
	return report, nil
}

// ExportCSV writes the resampled table of a session as CSV
func (s *SessionService) ExportCSV(ctx context.Context, id string) ([]byte, error) {
	dash, err := s.Dashboard(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.csv.WriteTable(&buf, dash.Result.Resampled, dash.Result.Buckets); err != nil {
		infrastructure.RecordExport(ctx, s.metrics, "csv", 0, err)
		return nil, fmt.Errorf("write csv: %w", err)
	}
	infrastructure.RecordExport(ctx, s.metrics, "csv", buf.Len(), nil)
	return buf.Bytes(), nil
}

// storeError maps store failures onto API errors
func (s *SessionService) storeError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return apierrors.ErrSessionNotFound
	}
	return err
}
