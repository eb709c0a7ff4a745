// Package services implements the business logic layer of the flow dashboard.
// It sits between the HTTP handlers and the data processing pipeline.
//
// # Sessions
//
// Every browser works against its own Session held by a SessionStore. The
// store hands out copies, and tables are never mutated in place, so one
// request cannot observe another's half-applied update. Idle sessions are
// evicted by a background sweeper after the configured TTL.
//
// # SessionService
//
// SessionService turns user actions into pipeline runs:
//
//   - Upload parses xlsx, xls or csv readings and converts bar to psi and
//     °C to °F. A failed upload empties the session table.
//   - UpdateControls stores the entry label, date range, period and join mode.
//   - Dashboard runs the pipeline over the current snapshot.
//   - Chart, Report and ExportCSV render PNG, PDF and CSV downloads.
//
// Errors are returned as *errors.APIError or *errors.AppError values that
// the HTTP error handler converts to RFC 7807 problems.
//
// # HealthService
//
// HealthService backs the health, readiness, liveness and version endpoints.
package services
