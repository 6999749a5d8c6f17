package bapp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/advdv/bslim"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxReadHeaderTimeout = 5 * time.Second

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	HealthHandler func(http.ResponseWriter, *http.Request)
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Mux        *Mux
	Logger     *zap.Logger
	Errors     *bslim.ErrorMiddleware
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates an HTTP server with all middleware and routing configured. The error
// middleware wraps the routing middleware, so requests without a route are rendered by the
// error handlers like any other failure.
func NewServer(params ServerParams, cfg ServerConfig) *http.Server {
	params.Mux.Use(withRequestDep(&requestDep{logger: params.Logger}))
	params.Mux.Use(params.Errors.Middleware())
	params.Mux.Use(params.Mux.RoutingMiddleware())

	// Tracing is disabled for the readiness path to avoid noisy traces from probes.
	healthPath := params.Env.readinessCheckPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	params.Mux.HandleStd(healthPath, http.HandlerFunc(healthHandler))

	handler := withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), healthPath)(params.Mux)

	writeTimeout := params.Env.writeTimeout()

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ReadHeaderTimeout: min(writeTimeout, maxReadHeaderTimeout),
		ReadTimeout:       writeTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       writeTimeout,
	}
}

// startServerHook registers lifecycle hooks for the HTTP server. The listener is opened while
// starting so the app accepts connections as soon as Start returns.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", server.Addr)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", server.Addr)
			}

			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
