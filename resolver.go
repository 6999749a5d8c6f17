package bslim

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// CallableResolver turns a stored handler reference into a handler that can be invoked.
type CallableResolver interface {
	Resolve(ref any) (ErrorHandler, error)
}

// NamedResolver resolves handlers, handler functions and the names of handlers it was given.
type NamedResolver struct {
	named map[string]ErrorHandler
}

// NewCallableResolver inits a resolver that can resolve string references to the handlers in named.
func NewCallableResolver(named map[string]ErrorHandler) *NamedResolver {
	return &NamedResolver{named: lo.Assign(named)}
}

// Resolve implements [CallableResolver].
func (r *NamedResolver) Resolve(ref any) (ErrorHandler, error) {
	switch v := ref.(type) {
	case nil:
		return nil, errors.New("bslim: cannot resolve a nil error handler")
	case ErrorHandler:
		return v, nil
	case func(ResponseWriter, *http.Request, error, Flags) error:
		return ErrorHandlerFunc(v), nil
	case string:
		h, ok := r.named[v]
		if !ok {
			return nil, errors.Errorf("bslim: no error handler named %q, got: %v", v, lo.Keys(r.named))
		}

		return h, nil
	default:
		return nil, errors.Errorf("bslim: %T is not resolvable to an error handler", ref)
	}
}

var _ CallableResolver = &NamedResolver{}
