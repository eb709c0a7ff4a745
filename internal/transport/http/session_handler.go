package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/middleware"
	api "flowpulse/pkg/contracts/api/v1"
	"flowpulse/pkg/contracts/domain"
)

const (
	// DefaultPreviewRows matches the head of the uploaded table
	DefaultPreviewRows = 5
	maxPreviewRows     = 100
	// multipartMemory is the part of an upload kept in memory before
	// spilling to temporary files
	multipartMemory = 8 << 20
)

// SessionHandler serves the dashboard API of every session
type SessionHandler struct {
	service        SessionServiceInterface
	validate       *validator.Validate
	queries        *middleware.QueryParamValidator
	errorHandler   *apierrors.ErrorHandler
	uploadMaxBytes int64
	tracer         trace.Tracer
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service SessionServiceInterface, errorHandler *apierrors.ErrorHandler, uploadMaxBytes int64, logger *slog.Logger) *SessionHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &SessionHandler{
		service:        service,
		validate:       middleware.NewValidator(),
		queries:        middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler:   errorHandler,
		uploadMaxBytes: uploadMaxBytes,
		tracer:         otel.Tracer("session-handler"),
		logger:         logger.With(slog.String("handler", "sessions")),
	}
}

// Routes returns the session router, mounted at /api/sessions
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateSession)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/upload", h.Upload)
		r.Put("/controls", h.UpdateControls)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/charts/{chart}", h.Chart)
		r.Post("/report", h.Report)
		r.Get("/report", h.Report)
		r.Get("/export.csv", h.ExportCSV)
	})

	return r
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sess, err := h.service.Create(r.Context(), req.EntryName)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newSessionResponse(sess))
}

// GetSession handles GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, newSessionResponse(sess))
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload handles POST /api/sessions/{id}/upload with a multipart "file"
// part and an optional "entry_name" field
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, span := h.tracer.Start(r.Context(), "session_handler.upload",
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	fail := func(err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		h.errorHandler.HandleError(w, r, err)
	}

	if h.uploadMaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(apierrors.ErrPayloadTooLarge.WithDetails(map[string]interface{}{
				"max_bytes": tooLarge.Limit,
			}))
			return
		}
		fail(apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		fail(apierrors.ErrMissingFile)
		return
	}
	defer file.Close()

	req := api.UploadRequest{Filename: header.Filename}
	if values, ok := r.MultipartForm.Value["entry_name"]; ok && len(values) > 0 {
		req.EntryName = &values[0]
	}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		fail(err)
		return
	}

	span.SetAttributes(
		attribute.String("upload.filename", header.Filename),
		attribute.Int64("upload.size", header.Size),
	)

	sess, err := h.service.Upload(ctx, id, req.Filename, file, req.EntryName)
	if err != nil {
		fail(err)
		return
	}

	h.logger.InfoContext(ctx, "upload accepted",
		slog.String("session_id", id),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))
	render.JSON(w, r, newSessionResponse(sess))
}

// UpdateControls handles PUT /api/sessions/{id}/controls
func (h *SessionHandler) UpdateControls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.ControlsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := middleware.ValidateStruct(h.validate, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	current, err := h.service.Get(ctx, id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	sess, err := h.service.UpdateControls(ctx, id, req.Controls(current.Controls))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, newSessionResponse(sess))
}

// Dashboard handles GET /api/sessions/{id}/dashboard. The optional "rows"
// query parameter sizes the preview.
func (h *SessionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.queries.ValidateInt(w, r, "rows", 1, maxPreviewRows, DefaultPreviewRows)
	if !ok {
		return
	}

	dash, err := h.service.Dashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, newDashboardResponse(dash, rows))
}

// Chart handles GET /api/sessions/{id}/charts/{chart}. format=png (the
// default) returns the image, format=json the plotted series.
func (h *SessionHandler) Chart(w http.ResponseWriter, r *http.Request) {
	format, ok := h.queries.ValidateEnum(w, r, "format", []string{"png", "json"}, "png")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	name := domain.ChartName(chi.URLParam(r, "chart"))

	if format == "json" {
		h.chartSeries(w, r, id, name)
		return
	}

	img, err := h.service.Chart(r.Context(), id, name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Write(img)
}

func (h *SessionHandler) chartSeries(w http.ResponseWriter, r *http.Request, id string, name domain.ChartName) {
	if _, ok := domain.LookupChart(name); !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrChartNotFound)
		return
	}
	dash, err := h.service.Dashboard(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	series, ok := dash.Result.SeriesFor(name)
	if !ok {
		h.errorHandler.HandleError(w, r, dash.ChartUnavailable(name))
		return
	}
	render.JSON(w, r, api.ChartPayload{ChartSeries: series, ImageURL: chartURL(id, name)})
}

// Report handles POST /api/sessions/{id}/report
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, span := h.tracer.Start(r.Context(), "session_handler.report",
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	report, err := h.service.Report(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report failed")
		h.errorHandler.HandleError(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("report.bytes", len(report.Content)))

	writeAttachment(w, report.ContentType, report.Filename, report.Content)
}

// ExportCSV handles GET /api/sessions/{id}/export.csv
func (h *SessionHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportCSV(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", "resampled_flow.csv", data)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
