package bapp

import (
	"net/http"

	"github.com/advdv/bslim"
	"github.com/carlmjohnson/requests"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of pulling from context.
//
// Example:
//
//	type Handlers struct {
//	    rt *bapp.Runtime[Env]
//	}
//
//	func (h *Handlers) GetItem(ctx context.Context, w bslim.ResponseWriter, r *http.Request) error {
//	    url, _ := h.rt.Reverse("get-item", id)
//	    // ...
//	}
type Runtime[E Environment] struct {
	env       E
	mux       *Mux
	errors    *bslim.ErrorMiddleware
	transport http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	Errors    *bslim.ErrorMiddleware
	Transport http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, mux *Mux, params RuntimeParams) *Runtime[E] {
	transport := params.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Runtime[E]{
		env:       env,
		mux:       mux,
		errors:    params.Errors,
		transport: transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Reverse returns the URL for a named route with the given parameters.
// The route must have been registered with a name using Handle/HandleFunc.
func (r *Runtime[E]) Reverse(name string, params ...string) (string, error) {
	return r.mux.Reverse(name, params...)
}

// ErrorMiddleware returns the app's error middleware, e.g. to look up the handler for a kind.
func (r *Runtime[E]) ErrorMiddleware() *bslim.ErrorMiddleware {
	return r.errors
}

// NewRequest returns a request builder whose calls are traced as children of the current span.
func (r *Runtime[E]) NewRequest() *requests.Builder {
	return newRequestBuilder(r.transport)
}
