package bslim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bslim"
	"github.com/stretchr/testify/require"
)

func TestRoutingMiddleware(t *testing.T) {
	var results *bslim.RoutingResults

	em := newErrorMiddleware(nil).SetErrorHandler(bslim.KindHTTP,
		func(w bslim.ResponseWriter, r *http.Request, _ error, _ bslim.Flags) error {
			results = bslim.RoutingResultsFrom(r.Context())
			w.WriteHeader(http.StatusTeapot)
			return nil
		}, true)

	mux := bslim.NewServeMux()
	mux.Use(em.Middleware(), mux.RoutingMiddleware())
	mux.HandleFunc("GET /users/{id}", func(ctx context.Context, w bslim.ResponseWriter, r *http.Request) error {
		results = bslim.RoutingResultsFrom(ctx)
		_, err := w.Write([]byte(bslim.RouteFrom(ctx).Name() + ":" + r.PathValue("id")))
		return err
	}, "user")
	mux.HandleFunc("GET /docs/", func(context.Context, bslim.ResponseWriter, *http.Request) error { return nil })

	serve := func(method, target string) *httptest.ResponseRecorder {
		results = nil
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
		return rec
	}

	t.Run("found", func(t *testing.T) {
		rec := serve(http.MethodGet, "/users/7?x=1")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user:7", rec.Body.String())

		require.Equal(t, bslim.RouteFound, results.Status)
		require.Equal(t, http.MethodGet, results.Method)
		require.Equal(t, "/users/7?x=1", results.URI)
		require.Equal(t, "GET /users/{id}", results.Route.Pattern())
	})

	t.Run("not found", func(t *testing.T) {
		rec := serve(http.MethodGet, "/nope")
		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, bslim.RouteNotFound, results.Status)
		require.Nil(t, results.Route)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := serve(http.MethodDelete, "/users/7")
		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, bslim.RouteMethodNotAllowed, results.Status)
		require.Contains(t, results.AllowedMethods, http.MethodGet)
	})

	t.Run("redirect", func(t *testing.T) {
		rec := serve(http.MethodGet, "/docs")
		require.Equal(t, http.StatusMovedPermanently, rec.Code)
		require.Equal(t, "/docs/", rec.Header().Get("Location"))
	})
}

func TestRoutingResultsOutsideRouting(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, bslim.RoutingResultsFrom(ctx))
	require.Nil(t, bslim.RouteFrom(ctx))
}

func TestRouteStatusString(t *testing.T) {
	require.Equal(t, "found", bslim.RouteFound.String())
	require.Equal(t, "not_found", bslim.RouteNotFound.String())
	require.Equal(t, "method_not_allowed", bslim.RouteMethodNotAllowed.String())
	require.Equal(t, "redirect", bslim.RouteRedirect.String())
}
