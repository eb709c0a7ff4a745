// Package exporter renders dashboard results into downloadable artifacts.
//
// ChartRenderer draws chart series as PNG images with gonum/plot.
//
// PDFExporter builds the "Crude Oil Flow Analysis Report": title, date span,
// averages, entry label, up to four charts, a units footnote and the
// generation time. Charts and the document are rendered into memory for
// each request, so concurrent exports never share files.
//
// CSVWriter writes a resampled table, optionally with bucket metadata, with a
// UTF-8 BOM for Excel compatibility.
//
// Example usage:
//
//	pdf := exporter.NewPDFExporter(logger, exporter.DefaultPDFOptions())
//	report, err := pdf.Export(ctx, exporter.ReportInput{
//	    Table:    result.Resampled,
//	    Forecast: result.Forecast,
//	})
package exporter
