package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"flowpulse/pkg/contracts/domain"
)

// ForecastSource selects the table the flow model is fitted on
type ForecastSource string

const (
	// ForecastFromFiltered fits on the date-filtered readings.
	ForecastFromFiltered ForecastSource = "filtered"
	// ForecastFromResampled fits on the bucket means.
	ForecastFromResampled ForecastSource = "resampled"
)

// Feature names used in skip reports
const (
	FeatureFilter   = "filter"
	FeatureResample = "resample"
	FeatureForecast = "forecast"
)

// ChartFeature names the skip entry of a chart
func ChartFeature(name domain.ChartName) string {
	return "chart:" + string(name)
}

// PipelineOptions tunes a Pipeline
type PipelineOptions struct {
	ForecastSource ForecastSource
}

// Result is everything the dashboard shows for one table and control state
type Result struct {
	Controls  domain.Controls
	Source    domain.Table
	Filtered  domain.Table
	Resampled domain.Table
	Buckets   []domain.Bucket
	Forecast  *domain.Forecast
	Series    []domain.ChartSeries
	Summary   domain.Summary
	// Skips holds a *FeatureSkip per feature that could not be produced.
	Skips    *multierror.Error
	Duration time.Duration
}

// Skipped lists the features that were not produced
func (r *Result) Skipped() []*FeatureSkip {
	if r.Skips == nil {
		return nil
	}
	out := make([]*FeatureSkip, 0, len(r.Skips.Errors))
	for _, err := range r.Skips.Errors {
		var skip *FeatureSkip
		if errors.As(err, &skip) {
			out = append(out, skip)
		}
	}
	return out
}

// SkipFor returns the skip reason of a feature, or nil when it was produced
func (r *Result) SkipFor(feature string) error {
	for _, s := range r.Skipped() {
		if s.Feature == feature {
			return s.Err
		}
	}
	return nil
}

// SeriesFor returns the series of a chart
func (r *Result) SeriesFor(name domain.ChartName) (domain.ChartSeries, bool) {
	for _, s := range r.Series {
		if s.Name == name {
			return s, true
		}
	}
	return domain.ChartSeries{}, false
}

// Pipeline recomputes the dashboard from a converted table. It holds no
// session state, so one Pipeline serves every session.
type Pipeline struct {
	logger *slog.Logger
	tracer trace.Tracer
	opts   PipelineOptions
}

// NewPipeline creates a pipeline. A nil tracer uses the global provider.
func NewPipeline(logger *slog.Logger, tracer trace.Tracer, opts PipelineOptions) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer("flowpulse.pipeline")
	}
	if opts.ForecastSource == "" {
		opts.ForecastSource = ForecastFromFiltered
	}
	return &Pipeline{
		logger: logger.With(slog.String("component", "pipeline")),
		tracer: tracer,
		opts:   opts,
	}
}

// Run filters, resamples, fits and charts a table. Missing columns and
// insufficient data skip single features and are collected in Result.Skips;
// only cancellation of ctx fails the run.
func (p *Pipeline) Run(ctx context.Context, t domain.Table, c domain.Controls) (*Result, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.Int("rows", t.Len()),
		attribute.String("period", c.Period.Code),
		attribute.String("join_mode", string(c.JoinMode)),
	))
	defer span.End()

	res := &Result{Controls: c, Source: t}
	skip := func(feature string, err error) {
		res.Skips = multierror.Append(res.Skips, &FeatureSkip{Feature: feature, Err: err})
	}

	// Nothing was ingested; the dashboard shows no data without complaint.
	if len(t.Columns) == 0 {
		res.Filtered, res.Resampled = t, t
		res.Summary = Summarize(t)
		res.Duration = time.Since(start)
		return res, nil
	}

	filtered, err := p.stage(ctx, "pipeline.filter", func() (domain.Table, error) {
		return FilterRange(t, c.Range)
	})
	if err != nil {
		skip(FeatureFilter, err)
		filtered = t
	}
	res.Filtered = filtered
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resampled, err := p.stage(ctx, "pipeline.resample", func() (domain.Table, error) {
		out, buckets, err := Resample(filtered, c.Period, c.JoinMode)
		res.Buckets = buckets
		return out, err
	})
	if err != nil {
		skip(FeatureResample, err)
		resampled = domain.Table{}.WithEntryName(t.EntryName)
	}
	res.Resampled = resampled
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fitOn := filtered
	if p.opts.ForecastSource == ForecastFromResampled {
		fitOn = resampled
	}
	_, fitSpan := p.tracer.Start(ctx, "pipeline.forecast")
	forecast, err := FitForecast(fitOn)
	if err != nil {
		fitSpan.RecordError(err)
		skip(FeatureForecast, err)
	} else {
		res.Forecast = forecast
		fitSpan.SetAttributes(attribute.Int("samples", forecast.Samples))
	}
	fitSpan.End()

	for _, spec := range domain.ChartSpecs() {
		series, err := BuildSeries(resampled, res.Forecast, spec.Name)
		if err != nil {
			skip(ChartFeature(spec.Name), err)
			continue
		}
		res.Series = append(res.Series, series)
	}

	res.Summary = Summarize(resampled)
	res.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("filtered_rows", filtered.Len()),
		attribute.Int("buckets", resampled.Len()),
		attribute.Int("skipped", len(res.Skipped())),
	)
	p.logger.DebugContext(ctx, "pipeline completed",
		slog.Int("rows", t.Len()),
		slog.Int("filtered_rows", filtered.Len()),
		slog.Int("buckets", resampled.Len()),
		slog.String("period", c.Period.Label),
		slog.Int("skipped", len(res.Skipped())),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func() (domain.Table, error)) (domain.Table, error) {
	_, span := p.tracer.Start(ctx, name)
	defer span.End()
	out, err := fn()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}
	span.SetAttributes(attribute.Int("rows", out.Len()))
	return out, nil
}
