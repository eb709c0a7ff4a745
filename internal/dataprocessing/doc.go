// Package dataprocessing turns uploaded flow-metering spreadsheets into the
// tables, forecasts and chart series the dashboard displays.
//
// # Stages
//
//	Parser → ConvertUnits → FilterRange → Resample → FitForecast → BuildSeries
//
// Parser reads .xlsx, .xls and .csv uploads into a domain.Table. ConvertUnits
// rewrites Pressure from bar to psi and Temperature from °C to °F exactly
// once per upload. FilterRange keeps an inclusive date range, Resample
// averages numeric columns over calendar buckets and FitForecast fits
// Flow_Rate on Pressure and Temperature.
//
// Pipeline runs every stage after ingestion for one table and one set of
// controls:
//
//	p := dataprocessing.NewPipeline(logger, nil, dataprocessing.PipelineOptions{})
//	res, err := p.Run(ctx, table, domain.Controls{Period: domain.PeriodSemiAnnual})
//
// # Error Handling
//
// Parse failures are *IngestionError. A missing expected column is a
// *MissingColumnError and a regression over fewer than two complete rows is
// ErrInsufficientData; inside a Pipeline both only skip the affected feature
// and are reported in Result.Skips.
package dataprocessing
