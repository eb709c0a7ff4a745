// Package config loads the service configuration.
//
// Values are layered, each source overriding the one before it:
//
//  1. Default()
//  2. a YAML file: $FLOW_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//  3. environment variables prefixed with FLOW_
//
// Environment variables follow the struct layout, for example:
//
//	FLOW_SERVER_PORT=8080
//	FLOW_SERVER_UPLOAD_MAX_BYTES=33554432
//	FLOW_SESSION_TTL=30m
//	FLOW_PIPELINE_DEFAULT_PERIOD="Semi-Annual"
//	FLOW_PIPELINE_JOIN_MODE=legacy
//	FLOW_TELEMETRY_TRACE_EXPORTER=stdout
//
// Load validates the result and normalizes logging settings; logs are
// always JSON.
package config
