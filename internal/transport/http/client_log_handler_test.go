package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"flowpulse/internal/shared/testutil"
)

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantLevel slog.Level
		wantMsg   string
	}{
		{
			name:      "error entry",
			body:      `{"level":"error","message":"Error reading the file","source":"dashboard","session_id":"3f1c2a9e-5b7d-4c1e-9a2b-6d8e0f1a2b3c"}`,
			wantCode:  http.StatusNoContent,
			wantLevel: slog.LevelError,
			wantMsg:   "Error reading the file",
		},
		{
			name:      "warning alias",
			body:      `{"level":"WARNING","message":"chart failed to load"}`,
			wantCode:  http.StatusNoContent,
			wantLevel: slog.LevelWarn,
			wantMsg:   "chart failed to load",
		},
		{
			name:      "unknown level logs at info",
			body:      `{"level":"trace","message":"page loaded","data":{"rows":5}}`,
			wantCode:  http.StatusNoContent,
			wantLevel: slog.LevelInfo,
			wantMsg:   "page loaded",
		},
		{
			name:     "missing message",
			body:     `{"level":"info"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad session id",
			body:     `{"message":"x","session_id":"not-a-uuid"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json",
			body:     `{"message":`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, records := testutil.NewTestLogger(t)
			handler := NewClientLogHandler(nil, logger)

			req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler.Handle(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantMsg == "" {
				return
			}
			testutil.AssertLogContains(t, records, tt.wantLevel, tt.wantMsg)
			testutil.AssertLogAttr(t, records, "handler", "client_log")
		})
	}
}
