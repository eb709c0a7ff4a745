package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/config"
	"flowpulse/internal/shared/testutil"
	api "flowpulse/pkg/contracts/api/v1"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	return a
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.Error(t, err)
	})

	t.Run("wires components", func(t *testing.T) {
		a := newTestApp(t, testConfig())

		assert.NotNil(t, a.Router)
		assert.NotNil(t, a.Server)
		assert.NotNil(t, a.Sessions)
		assert.NotNil(t, a.SessionService)
		assert.NotNil(t, a.HealthService)
		assert.NotNil(t, a.Metrics)
		assert.Equal(t, "127.0.0.1:0", a.Server.Addr)
		assert.Equal(t, a.Config.Server.ReadTimeout, a.Server.ReadTimeout)
		assert.Equal(t, 1000, a.Sessions.Capacity())
	})
}

func TestApplication_HealthRoutes(t *testing.T) {
	a := newTestApp(t, testConfig())

	tests := []struct {
		path       string
		wantStatus string
	}{
		{path: "/api/health", wantStatus: "ok"},
		{path: "/api/health/ready", wantStatus: "ready"},
		{path: "/api/health/live", wantStatus: "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(a, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestApplication_Version(t *testing.T) {
	a := newTestApp(t, testConfig())

	w := serve(a, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "v1", body["api_version"])
}

func TestApplication_Index(t *testing.T) {
	a := newTestApp(t, testConfig())

	w := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `id="controls-form"`)
}

func TestApplication_NotFound(t *testing.T) {
	a := newTestApp(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "unknown session", method: http.MethodGet, path: "/api/sessions/unknown", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodDelete, path: "/api/version", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(a, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var problem map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
			assert.EqualValues(t, tt.wantStatus, problem["status"])
		})
	}
}

func TestApplication_CORSPreflight(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := serve(a, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_RejectsMalformedJSON(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"entry_name":`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(a, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplication_ClientLogs(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"level":"error","message":"boom"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNoContent, serve(a, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`level=error`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnsupportedMediaType, serve(a, req).Code)
}

func TestApplication_SessionFlow(t *testing.T) {
	a := newTestApp(t, testConfig())

	// create
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"entry_name":"Meter A"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(a, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess api.SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sess))
	base := "/api/sessions/" + sess.ID

	// dashboard before upload
	w = serve(a, httptest.NewRequest(http.MethodGet, base+"/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var empty api.DashboardResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&empty))
	assert.Equal(t, "Please upload a valid Excel file to proceed.", empty.Message)

	// upload
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "readings.csv")
	require.NoError(t, err)
	_, err = part.Write(testutil.CSV(t, testutil.HalfYear()))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, base+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = serve(a, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sess))
	assert.Equal(t, "readings.csv", sess.Filename)
	assert.Positive(t, sess.Rows)

	// controls
	req = httptest.NewRequest(http.MethodPut, base+"/controls",
		strings.NewReader(`{"start_date":"2024-01-01","end_date":"2024-06-30","period":"Semi-Annual"}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(a, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// dashboard
	w = serve(a, httptest.NewRequest(http.MethodGet, base+"/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var dash api.DashboardResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dash))
	assert.Equal(t, "Meter A", dash.Controls.EntryName)
	assert.Equal(t, "Semi-Annual", dash.Controls.Period)
	assert.Len(t, dash.Preview.Rows, 5)
	assert.Equal(t, 1, dash.Resampled.Total)
	assert.NotNil(t, dash.Forecast)
	assert.Len(t, dash.Charts, 4)

	// chart
	w = serve(a, httptest.NewRequest(http.MethodGet, base+"/charts/flow", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	// report
	w = serve(a, httptest.NewRequest(http.MethodPost, base+"/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	// csv
	w = serve(a, httptest.NewRequest(http.MethodGet, base+"/export.csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Flow_Rate")

	// delete
	w = serve(a, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = serve(a, httptest.NewRequest(http.MethodGet, base, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplication_Metrics(t *testing.T) {
	a := newTestApp(t, testConfig())

	serve(a, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	w := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/api/health`)
}

func TestApplication_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.MetricsEnabled = false
	a := newTestApp(t, cfg)

	w := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplication_StartStop(t *testing.T) {
	a := newTestApp(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := a.Start(ctx)
	require.NoError(t, a.Stop(context.Background()))

	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
