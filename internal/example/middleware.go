// Package example implements example middleware in an outside package.
package example

import (
	"context"
	"net/http"

	"github.com/advdv/bslim"
	"go.uber.org/zap"
)

// ctxKey type scopes middleware values.
type ctxKey string

// Middleware provides an example for middleware that adds a request-scoped logger to the context.
func Middleware(logs *zap.Logger) bslim.Middleware {
	return func(next bslim.BareHandler) bslim.BareHandler {
		return bslim.BareHandlerFunc(func(w bslim.ResponseWriter, r *http.Request) error {
			logs := logs.With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
			ctx := context.WithValue(r.Context(), ctxKey("zap"), logs)

			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	}
}

// Log returns the logger added by [Middleware], nil if there is none.
func Log(ctx context.Context) *zap.Logger {
	v, _ := ctx.Value(ctxKey("zap")).(*zap.Logger)

	return v
}
