package bapp

import (
	"context"
	"net/http"
	"time"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

const tracingInitTimeout = 5 * time.Second

// Exporters supported by BSLIM_OTEL_EXPORTER.
const (
	ExporterStdout  = "stdout"
	ExporterXRayUDP = "xrayudp"
	ExporterNone    = "none"
)

// NewTracerProvider creates and configures the OpenTelemetry TracerProvider. With the "none"
// exporter spans are still created, so error handlers can record on them, but never exported.
// Shutdown is handled automatically via fx.Lifecycle.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), tracingInitTimeout)
	defer cancel()

	exporterType := env.otelExporter()

	exporter, err := newExporter(ctx, exporterType)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, exporterType, env.serviceName())
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	}

	if exporterType == ExporterXRayUDP {
		opts = append(opts, sdktrace.WithIDGenerator(xray.NewIDGenerator()))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

// NewPropagator creates a TextMapPropagator based on the exporter type.
// For xrayudp: uses the X-Ray propagator.
// Otherwise: uses W3C TraceContext + Baggage composite propagator.
func NewPropagator(env Environment) propagation.TextMapPropagator {
	if env.otelExporter() == ExporterXRayUDP {
		return xray.Propagator{}
	}
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// newExporter creates a span exporter based on the exporter type, nil for "none".
func newExporter(ctx context.Context, exporterType string) (sdktrace.SpanExporter, error) {
	switch exporterType {
	case ExporterStdout, "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterXRayUDP:
		return xrayudp.NewSpanExporter(ctx)
	case ExporterNone:
		return nil, nil
	default:
		return nil, errors.Errorf("unsupported BSLIM_OTEL_EXPORTER: %q (supported: %s, %s, %s)",
			exporterType, ExporterStdout, ExporterXRayUDP, ExporterNone)
	}
}

// newResource describes the service. With xrayudp the app is assumed to run on AWS Lambda and the
// Lambda detector provides the attributes.
func newResource(ctx context.Context, exporterType, serviceName string) (*resource.Resource, error) {
	if exporterType == ExporterXRayUDP {
		res, err := lambda.NewResourceDetector().Detect(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "detect lambda resource")
		}

		return res, nil
	}

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	), nil
}

// withTracing wraps the handler with otelhttp for automatic span creation.
// Requests to excludePaths are not traced.
func withTracing(
	tp trace.TracerProvider, prop propagation.TextMapPropagator, serviceName string, excludePaths ...string,
) func(http.Handler) http.Handler {
	excluded := lo.Associate(excludePaths, func(p string) (string, struct{}) { return p, struct{}{} })

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(prop),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
			otelhttp.WithFilter(func(r *http.Request) bool {
				_, skip := excluded[r.URL.Path]
				return !skip
			}),
		)
	}
}
