package bapptest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [bapp.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets the [bapp.BaseEnvironment] env vars to test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - BSLIM_SERVICE_NAME: "test"
//   - BSLIM_READINESS_CHECK_PATH: "/health"
//   - BSLIM_OTEL_EXPORTER: "none"
//   - BSLIM_LOG_LEVEL: "error"
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("BSLIM_PORT", strconv.Itoa(port))
	t.Setenv("BSLIM_SERVICE_NAME", "test")
	t.Setenv("BSLIM_READINESS_CHECK_PATH", "/health")
	t.Setenv("BSLIM_OTEL_EXPORTER", "none")
	t.Setenv("BSLIM_LOG_LEVEL", "error")
	return &Env{t: t}
}

// ServiceName overrides BSLIM_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BSLIM_SERVICE_NAME", name)
	return e
}

// ReadinessCheckPath overrides BSLIM_READINESS_CHECK_PATH.
func (e *Env) ReadinessCheckPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BSLIM_READINESS_CHECK_PATH", path)
	return e
}

// DisplayErrorDetails overrides BSLIM_DISPLAY_ERROR_DETAILS.
func (e *Env) DisplayErrorDetails(v bool) *Env {
	e.t.Helper()
	e.t.Setenv("BSLIM_DISPLAY_ERROR_DETAILS", strconv.FormatBool(v))
	return e
}

// BufferLimit overrides BSLIM_BUFFER_LIMIT.
func (e *Env) BufferLimit(n int) *Env {
	e.t.Helper()
	e.t.Setenv("BSLIM_BUFFER_LIMIT", strconv.Itoa(n))
	return e
}
