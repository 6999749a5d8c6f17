package bapp

import (
	"context"
	"net/http"

	"github.com/advdv/bslim"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ctxKey is the key type for context values.
type ctxKey int

const (
	ctxKeyRequestDep ctxKey = iota
)

// requestDep holds request-scoped dependencies available via context.
// App-scoped dependencies (env, mux, error middleware) are accessed via Runtime instead.
type requestDep struct {
	logger *zap.Logger
}

// withRequestDep injects dependencies into the request context.
func withRequestDep(d *requestDep) bslim.Middleware {
	return func(next bslim.BareHandler) bslim.BareHandler {
		return bslim.BareHandlerFunc(func(w bslim.ResponseWriter, r *http.Request) error {
			ctx := context.WithValue(r.Context(), ctxKeyRequestDep, d)
			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestDepFromContext(ctx context.Context) *requestDep {
	d, ok := ctx.Value(ctxKeyRequestDep).(*requestDep)
	if !ok {
		panic("bapp: requestDep not found in context; is the middleware configured?")
	}
	return d
}

// Log returns a trace-correlated zap logger from the context. When the request was routed the
// entries also carry the matched route pattern.
func Log(ctx context.Context) *zap.Logger {
	d := requestDepFromContext(ctx)

	fields := traceFields(ctx)
	if route := bslim.RouteFrom(ctx); route != nil {
		fields = append(fields, zap.String("route", route.Pattern()))
	}

	return d.logger.With(fields...)
}

// Span returns the current trace span from the context.
func Span(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
