package bapp

import (
	"github.com/advdv/bslim"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const namedErrorHandlersGroup = `group:"bslim_named_error_handlers"`

// NamedErrorHandler is an error handler that registrations can refer to by name.
type NamedErrorHandler struct {
	Name    string
	Handler bslim.ErrorHandler
}

// AsNamedErrorHandler annotates a constructor that returns a [NamedErrorHandler] so the handler
// can be referred to by name from [WithErrorHandler] and [WithDefaultErrorHandler]. The
// constructor's own arguments are injected like any other fx constructor:
//
//	bapp.WithFx(fx.Provide(bapp.AsNamedErrorHandler(func(logs *zap.Logger) bapp.NamedErrorHandler {
//	    return bapp.NamedErrorHandler{Name: "storage", Handler: NewStorageErrorHandler(logs)}
//	})))
func AsNamedErrorHandler(constructor any) any {
	return fx.Annotate(constructor, fx.ResultTags(namedErrorHandlersGroup))
}

// ErrorHandlerRegistration binds an error handler reference to a kind.
type ErrorHandlerRegistration struct {
	Kind           *bslim.Kind
	Handler        any
	HandleSubKinds bool
}

// ErrorConfig holds the error handler setup collected from the app options. Registrations are
// applied in order, which is the order sub-kind handlers are tried in.
type ErrorConfig struct {
	Registrations  []ErrorHandlerRegistration
	DefaultHandler any
}

// ErrorMiddlewareParams holds the dependencies of the error middleware.
type ErrorMiddlewareParams struct {
	fx.In

	Env    Environment
	Logger *zap.Logger
	Named  []NamedErrorHandler `group:"bslim_named_error_handlers"`
}

// NewErrorMiddleware builds the error middleware from the environment flags and the configured
// handlers. Every configured reference is resolved once up-front so that a typo in a handler
// name fails the app at startup instead of at the first error.
func NewErrorMiddleware(params ErrorMiddlewareParams, cfg ErrorConfig) (*bslim.ErrorMiddleware, error) {
	named := make(map[string]bslim.ErrorHandler, len(params.Named))
	for _, n := range params.Named {
		if _, exists := named[n.Name]; exists {
			return nil, errors.Errorf("error handler named %q is provided more than once", n.Name)
		}

		named[n.Name] = n.Handler
	}

	resolver := bslim.NewCallableResolver(named)
	flags := params.Env.errorFlags()
	em := bslim.NewErrorMiddleware(
		resolver,
		bslim.NewResponseFactory(),
		flags.DisplayErrorDetails,
		flags.LogErrors,
		flags.LogErrorDetails,
		bslim.WithErrorLogger(params.Logger.Named("errors")),
	)

	if cfg.DefaultHandler != nil {
		if _, err := resolver.Resolve(cfg.DefaultHandler); err != nil {
			return nil, errors.Wrap(err, "invalid default error handler")
		}

		em.SetDefaultErrorHandler(cfg.DefaultHandler)
	}

	for _, reg := range cfg.Registrations {
		if _, err := resolver.Resolve(reg.Handler); err != nil {
			return nil, errors.Wrapf(err, "invalid error handler for kind %q", reg.Kind)
		}

		em.SetErrorHandler(reg.Kind, reg.Handler, reg.HandleSubKinds)
	}

	return em, nil
}
