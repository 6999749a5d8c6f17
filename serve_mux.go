package bslim

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// ServeMux is an HTTP multiplexer with buffered responses, error handling, and named routes. Route
// matching is done by a standard library [http.ServeMux]; the middleware provided with
// [ServeMux.Use] wraps every request, including those no route matches.
type ServeMux struct {
	logs        Logger
	bufLimit    int
	reverser    *Reverser
	mux         *http.ServeMux
	middlewares struct {
		captured bool
		buffered []Middleware
	}

	once    sync.Once
	handler http.Handler
}

// NewServeMux creates a new ServeMux with default settings.
func NewServeMux() *ServeMux {
	return NewServeMuxWith(-1, NewZapLogger(zap.NewNop()), http.NewServeMux(), NewReverser())
}

// NewServeMuxWith creates a ServeMux with custom settings.
func NewServeMuxWith(bufLimit int, logger Logger, baseMux *http.ServeMux, reverser *Reverser) *ServeMux {
	return &ServeMux{
		bufLimit: bufLimit,
		logs:     logger,
		reverser: reverser,
		mux:      baseMux,
	}
}

// Reverse returns the url based on the name and parameter values.
func (m *ServeMux) Reverse(name string, vals ...string) (string, error) {
	return m.reverser.Reverse(name, vals...)
}

// Use allows providing of middleware.
func (m *ServeMux) Use(mw ...Middleware) {
	m.ensureNoUseAfterHandle()
	m.middlewares.buffered = append(m.middlewares.buffered, mw...)
}

// HandleFunc handles the request given the pattern using a function.
func (m *ServeMux) HandleFunc(pattern string, handler HandlerFunc, name ...string) {
	m.Handle(pattern, handler, name...)
}

// HandleStd registers a standard library [http.Handler] for the given pattern. Middleware
// registered via [ServeMux.Use] is applied. Whatever the handler writes is buffered, so error
// middleware can still replace it.
func (m *ServeMux) HandleStd(pattern string, handler http.Handler, name ...string) {
	m.Handle(pattern, HandlerFunc(func(_ context.Context, w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}), name...)
}

// Handle handles the request given a handler.
func (m *ServeMux) Handle(pattern string, handler Handler, name ...string) {
	route := &Route{pattern: pattern, handler: handler}
	if len(name) > 0 {
		route.name = name[0]
	}

	m.handle(route)
}

// ServeHTTP makes the server mux implement the http.Handler interface. The middleware chain is
// built on the first request.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.once.Do(func() {
		m.middlewares.captured = true
		m.handler = ToStd(
			wrapBare(BareHandlerFunc(m.runRoute), m.middlewares.buffered...),
			m.bufLimit,
			m.logs,
		)
	})

	m.handler.ServeHTTP(w, r)
}

func (m *ServeMux) handle(route *Route) {
	m.middlewares.captured = true

	if route.name != "" {
		route.pattern = m.reverser.Named(route.name, route.pattern)
	}

	m.mux.Handle(route.pattern, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(ctxKeyRouteSlot).(*routeSlot); ok {
			slot.route, slot.req = route, r
		}
	}))
}

func (m *ServeMux) ensureNoUseAfterHandle() {
	if m.middlewares.captured {
		panic("bslim: cannot call Use() after calling Handle")
	}
}
