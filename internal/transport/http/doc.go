// Package http implements the HTTP handlers of the flow dashboard.
// Handlers stay thin: they parse and validate the request, call a service
// interface and render the result.
//
// # Routes
//
//	POST   /api/sessions                          create a session
//	GET    /api/sessions/{id}                     session summary
//	DELETE /api/sessions/{id}                     drop a session
//	POST   /api/sessions/{id}/upload              multipart "file" (+ "entry_name")
//	PUT    /api/sessions/{id}/controls            entry label, date range, period
//	GET    /api/sessions/{id}/dashboard           preview, resampled table, forecast
//	GET    /api/sessions/{id}/charts/{chart}      PNG, or series with ?format=json
//	POST   /api/sessions/{id}/report              PDF attachment
//	GET    /api/sessions/{id}/export.csv          resampled table as CSV
//	POST   /api/logs                              browser-side log entries
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//	GET    /                                      embedded dashboard page
//
// # Error Handling
//
// Every failure is rendered as RFC 7807 Problem Details by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/ingestion",
//	    "title": "Error Reading File",
//	    "status": 422,
//	    "detail": "sheet has no header row",
//	    "instance": "/api/sessions/7c1e.../upload",
//	    "trace_id": "..."
//	}
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces.
package http
