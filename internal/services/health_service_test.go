package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/config"
	"flowpulse/internal/shared/testutil"
	"flowpulse/pkg/contracts/domain"
)

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Second)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ctx := context.Background()

	full := NewSessionStore(config.SessionConfig{TTL: time.Hour, MaxSessions: 1}, nil, logger)
	_, err := full.Create(ctx, domain.Controls{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		store *SessionStore
		want  string
	}{
		{name: "store available", store: NewSessionStore(config.SessionConfig{TTL: time.Hour}, nil, logger), want: "ready"},
		{name: "store full", store: full, want: "not_ready"},
		{name: "no store", store: nil, want: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewHealthService("1.0.0", tt.store, logger).ReadinessCheck(ctx)
			assert.Equal(t, tt.want, status.Status)
			sessions, ok := status.Services["sessions"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, tt.want, sessions.Status)
		})
	}
}

func TestHealthService_LivenessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	status := NewHealthService("1.0.0", nil, logger).LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "uptime")
	assert.Contains(t, status.Runtime, "goroutines")
	assert.Contains(t, status.Runtime, "go_version")
}

func TestHealthService_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	info := NewHealthService("1.0.0", nil, logger).Version()

	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "FlowPulse v1.0.0", info["name"])
	assert.Equal(t, "v1", info["api_version"])
	assert.NotEmpty(t, info["start_time"])
}
