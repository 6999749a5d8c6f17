package bslim

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// RouteStatus describes the outcome of looking up the route for a request.
type RouteStatus int

const (
	RouteNotFound RouteStatus = iota
	RouteFound
	RouteMethodNotAllowed
	RouteRedirect
)

func (s RouteStatus) String() string {
	switch s {
	case RouteFound:
		return "found"
	case RouteMethodNotAllowed:
		return "method_not_allowed"
	case RouteRedirect:
		return "redirect"
	default:
		return "not_found"
	}
}

// Route is a handler registered on a [ServeMux].
type Route struct {
	pattern string
	name    string
	handler Handler
}

// Pattern returns the pattern the route was registered with.
func (rt *Route) Pattern() string { return rt.pattern }

// Name returns the name of the route, empty if it was registered without one.
func (rt *Route) Name() string { return rt.name }

// RoutingResults is what the router found for a request.
type RoutingResults struct {
	Status RouteStatus
	Method string
	URI    string

	// Route is the matched route, only set when Status is RouteFound.
	Route *Route
	// AllowedMethods lists the methods the path does match, only set when Status is
	// RouteMethodNotAllowed.
	AllowedMethods []string
	// RedirectTo is the location the router redirects to, only set when Status is RouteRedirect.
	RedirectTo string

	mux *ServeMux
}

type ctxKey int

const (
	ctxKeyRoutingResults ctxKey = iota
	ctxKeyRouteSlot
)

// RoutingResultsFrom returns the routing results stored in ctx, nil if the request was not routed yet.
func RoutingResultsFrom(ctx context.Context) *RoutingResults {
	res, _ := ctx.Value(ctxKeyRoutingResults).(*RoutingResults)
	return res
}

// RouteFrom returns the route matched for the request ctx belongs to, nil if there is none.
func RouteFrom(ctx context.Context) *Route {
	if res := RoutingResultsFrom(ctx); res != nil {
		return res.Route
	}

	return nil
}

// routeSlot is filled in by the handler the standard library mux dispatches to while probing.
type routeSlot struct {
	route *Route
	req   *http.Request
}

// probeWriter records what the standard library mux would have responded with.
type probeWriter struct {
	header http.Header
	status int
}

func (w *probeWriter) Header() http.Header         { return w.header }
func (w *probeWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *probeWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

// route looks up the route for r on the standard library mux. The returned request carries the
// results in its context and, when a route was found, the matched path values.
func (m *ServeMux) route(r *http.Request) (*http.Request, *RoutingResults) {
	slot := &routeSlot{}
	probe := r.WithContext(context.WithValue(r.Context(), ctxKeyRouteSlot, slot))
	pw := &probeWriter{header: http.Header{}}
	m.mux.ServeHTTP(pw, probe)

	res := &RoutingResults{Method: r.Method, URI: r.URL.RequestURI(), mux: m}
	routed := r

	switch {
	case slot.route != nil:
		res.Status, res.Route = RouteFound, slot.route
		routed = slot.req
	case pw.status == http.StatusMethodNotAllowed:
		res.Status = RouteMethodNotAllowed
		res.AllowedMethods = lo.Compact(lo.Map(strings.Split(pw.header.Get("Allow"), ","),
			func(m string, _ int) string { return strings.TrimSpace(m) }))
	case pw.status >= 300 && pw.status < 400 && pw.header.Get("Location") != "":
		res.Status, res.RedirectTo = RouteRedirect, pw.header.Get("Location")
	default:
		res.Status = RouteNotFound
	}

	return routed.WithContext(context.WithValue(r.Context(), ctxKeyRoutingResults, res)), res
}

// RoutingMiddleware returns middleware that routes the request and stores the [RoutingResults] in
// its context. Requests without a matching route fail with a 404 or 405 [*Error] that carries the
// routed request, so error handlers can inspect the results.
func (m *ServeMux) RoutingMiddleware() Middleware {
	return func(next BareHandler) BareHandler {
		return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
			return m.performRouting(w, r, next)
		})
	}
}

func (m *ServeMux) performRouting(w ResponseWriter, r *http.Request, next BareHandler) error {
	r, res := m.route(r)

	switch res.Status {
	case RouteFound:
		return next.ServeBareBHTTP(w, r)
	case RouteRedirect:
		http.Redirect(w, r, res.RedirectTo, http.StatusMovedPermanently)
		return nil
	case RouteMethodNotAllowed:
		return NewHTTPError(r, CodeMethodNotAllowed, errors.Newf("method %s is not allowed for %s, allowed: %v",
			res.Method, res.URI, res.AllowedMethods))
	default:
		return NewHTTPError(r, CodeNotFound, errors.Newf("no route for %s %s", res.Method, res.URI))
	}
}

// runRoute is the innermost handler of a [ServeMux]: it serves the matched route, routing the
// request first if no routing middleware of this mux did so. Results of an outer mux, which a
// mounted mux inherits through the request context, are never used.
func (m *ServeMux) runRoute(w ResponseWriter, r *http.Request) error {
	res := RoutingResultsFrom(r.Context())
	if res == nil || res.mux != m {
		return m.performRouting(w, r, BareHandlerFunc(m.runRoute))
	}

	if res.Route == nil {
		return NewHTTPError(r, CodeNotFound, errors.Newf("no route for %s %s", res.Method, res.URI))
	}

	return res.Route.handler.ServeBHTTP(r.Context(), w, r)
}
