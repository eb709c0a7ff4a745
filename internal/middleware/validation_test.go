package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/shared/testutil"
	api "flowpulse/pkg/contracts/api/v1"
)

func strPtr(s string) *string { return &s }

func TestValidateStruct_Controls(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		req       api.ControlsRequest
		wantField string
		wantMsg   string
	}{
		{name: "empty request", req: api.ControlsRequest{}},
		{
			name: "full request",
			req: api.ControlsRequest{
				EntryName: strPtr("Well 7"),
				StartDate: "2024-01-01",
				EndDate:   "2024-06-30",
				Period:    "Semi-Annual",
				JoinMode:  "legacy",
			},
		},
		{name: "period by code", req: api.ControlsRequest{Period: "4m"}},
		{name: "single date", req: api.ControlsRequest{StartDate: "2024-03-01"}},
		{name: "same day range", req: api.ControlsRequest{StartDate: "2024-03-01", EndDate: "2024-03-01"}},
		{
			name:      "bad date",
			req:       api.ControlsRequest{StartDate: "01/03/2024"},
			wantField: "start_date",
			wantMsg:   "start_date must be a date formatted as YYYY-MM-DD",
		},
		{
			name:      "unknown period",
			req:       api.ControlsRequest{Period: "Weekly"},
			wantField: "period",
			wantMsg:   "period must be one of: 3 Months, 4 Months, Semi-Annual, Annual",
		},
		{
			name:      "unknown join mode",
			req:       api.ControlsRequest{JoinMode: "inner"},
			wantField: "join_mode",
			wantMsg:   "join_mode must be one of: bucket, legacy",
		},
		{
			name:      "reversed range",
			req:       api.ControlsRequest{StartDate: "2024-06-30", EndDate: "2024-01-01"},
			wantField: "end_date",
			wantMsg:   "end_date must not precede start_date",
		},
		{
			name:      "entry name too long",
			req:       api.ControlsRequest{EntryName: strPtr(strings.Repeat("x", 201))},
			wantField: "entry_name",
			wantMsg:   "entry_name must be at most 200 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(v, tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			apiErr, ok := err.(*apierrors.APIError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.Len(t, details.Errors, 1)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
			assert.Equal(t, tt.wantMsg, details.Errors[0].Message)
		})
	}
}

func TestValidateStruct_Upload(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		filename string
		valid    bool
	}{
		{"readings.xlsx", true},
		{"READINGS.CSV", true},
		{"legacy.xls", true},
		{"notes.txt", false},
		{"../secret.csv", false},
		{"dir/readings.csv", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			err := ValidateStruct(v, api.UploadRequest{Filename: tt.filename})
			assert.Equal(t, tt.valid, err == nil, "error: %v", err)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	m := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))

	reached := false
	h := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantReached bool
		wantBody    string
	}{
		{name: "valid json", contentType: "application/json", body: `{"period":"Annual"}`, wantStatus: http.StatusOK, wantReached: true},
		{name: "invalid json", contentType: "application/json; charset=utf-8", body: `{"period":`, wantStatus: http.StatusBadRequest},
		{
			name:        "oversized json",
			contentType: "application/json",
			body:        `{"entry_name":"` + strings.Repeat("x", 1<<20) + `"}`,
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantBody:    `"max_size":1048576`,
		},
		{name: "multipart passes through", contentType: "multipart/form-data; boundary=x", body: "--x--", wantStatus: http.StatusOK, wantReached: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodPut, "/api/sessions/s/controls", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantReached, reached)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "application/json", "multipart/form-data")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{name: "get skips", method: http.MethodGet, want: http.StatusOK},
		{name: "missing", method: http.MethodPost, want: http.StatusBadRequest},
		{name: "json", method: http.MethodPost, contentType: "application/json", want: http.StatusOK},
		{name: "multipart", method: http.MethodPost, contentType: "multipart/form-data; boundary=b", want: http.StatusOK},
		{name: "text", method: http.MethodPost, contentType: "text/plain", want: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/sessions", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	t.Run("int default", func(t *testing.T) {
		w := httptest.NewRecorder()
		n, ok := v.ValidateInt(w, httptest.NewRequest(http.MethodGet, "/", nil), "rows", 1, 100, 10)
		assert.True(t, ok)
		assert.Equal(t, 10, n)
	})

	t.Run("int out of range", func(t *testing.T) {
		w := httptest.NewRecorder()
		_, ok := v.ValidateInt(w, httptest.NewRequest(http.MethodGet, "/?rows=500", nil), "rows", 1, 100, 10)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("enum case insensitive", func(t *testing.T) {
		w := httptest.NewRecorder()
		got, ok := v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/?format=PNG", nil), "format", []string{"png", "json"}, "png")
		assert.True(t, ok)
		assert.Equal(t, "png", got)
	})

	t.Run("enum rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		_, ok := v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/?format=svg", nil), "format", []string{"png", "json"}, "png")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
