package config

import "time"

// Application constants
const (
	AppName    = "FlowPulse"
	AppVersion = "1.0.0"
	AppTitle   = "Crude Flow Monitoring & Performance Analysis System"
	AppTagline = "Monitoring flow rates and analyzing performance for metering & custody transfer operations"
	AppCredit  = "Designed by Tareq Mageed/ Dhiqar Oil Co./Ministry of Oil"

	// EnvPrefix namespaces every environment variable, e.g. FLOW_SERVER_PORT.
	EnvPrefix = "FLOW"

	// Uploads
	DefaultUploadMaxBytes = 32 << 20

	// Sessions
	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultMaxSessions   = 1000

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultRequestTimeout = 60 * time.Second

	// Report
	DefaultReportChartWidthMM = 180.0

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/flowpulse.log"

	// Telemetry
	DefaultServiceName = "flowpulse"
)

// API endpoints
const (
	APIBasePath      = "/api"
	SessionsEndpoint = "/api/sessions"
	HealthEndpoint   = "/api/health"
	VersionEndpoint  = "/api/version"
	MetricsEndpoint  = "/metrics"
)

// Feature flags
const (
	FeatureMetricsEnabled      = true
	FeatureRateLimitingEnabled = true
	FeatureCSVExportEnabled    = true
	FeatureLegacyJoinEnabled   = true
)

// GetFeatureFlag returns the value of a feature flag
func GetFeatureFlag(flag string) bool {
	switch flag {
	case "metrics":
		return FeatureMetricsEnabled
	case "rate_limiting":
		return FeatureRateLimitingEnabled
	case "csv_export":
		return FeatureCSVExportEnabled
	case "legacy_join":
		return FeatureLegacyJoinEnabled
	default:
		return false
	}
}
