// Package bapp wires a bslim mux into a runnable application: configuration from the environment,
// a zap logger, OpenTelemetry tracing, an error middleware with the configured error handlers and
// an HTTP server whose lifecycle is managed by fx.
//
// # Error handlers
//
// Error handlers are registered per kind with [WithErrorHandler]. Handlers that need other
// dependencies are constructed by fx and referred to by name:
//
//	bapp.NewApp[Env](routing,
//	    bapp.WithFx(fx.Provide(bapp.AsNamedErrorHandler(NewStorageErrorHandler))),
//	    bapp.WithErrorHandler(KindStorage, "storage", true),
//	)
//
// Requests that match no route fail with a [bslim.KindNotFound] or [bslim.KindMethodNotAllowed]
// error, so they can be handled like any other error.
//
// # Environment
//
//   - BSLIM_PORT, BSLIM_SERVICE_NAME: required.
//   - BSLIM_READINESS_CHECK_PATH: health endpoint, "/health" by default.
//   - BSLIM_LOG_LEVEL: zap level, "info" by default.
//   - BSLIM_OTEL_EXPORTER: "stdout" (default), "xrayudp" or "none".
//   - BSLIM_DISPLAY_ERROR_DETAILS, BSLIM_LOG_ERRORS, BSLIM_LOG_ERROR_DETAILS: error middleware flags.
//   - BSLIM_BUFFER_LIMIT: response buffer limit in bytes, -1 for none.
//   - BSLIM_WRITE_TIMEOUT: server timeouts, "30s" by default.
package bapp
