package bapp

import (
	"context"
	"net/http"

	"github.com/advdv/bslim"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	ErrorConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// runtimeProviderParams holds dependencies for Runtime.
type runtimeProviderParams[E Environment] struct {
	fx.In

	Env       E
	Mux       *Mux
	Errors    *bslim.ErrorMiddleware
	Transport http.RoundTripper
}

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler.
// If not set, a default handler returning 200 OK is used.
func WithHealthHandler(h func(http.ResponseWriter, *http.Request)) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// WithErrorHandler registers the handler for errors of the given kind. The handler may be a
// [bslim.ErrorHandler], a function with its signature or the name of a handler provided with
// [WithNamedErrorHandler] or [AsNamedErrorHandler].
func WithErrorHandler(kind *bslim.Kind, handler any, handleSubKinds bool) Option {
	return func(c *AppConfig) {
		c.Registrations = append(c.Registrations, ErrorHandlerRegistration{
			Kind:           kind,
			Handler:        handler,
			HandleSubKinds: handleSubKinds,
		})
	}
}

// WithDefaultErrorHandler replaces the built-in handler for errors no other handler is registered for.
func WithDefaultErrorHandler(handler any) Option {
	return func(c *AppConfig) {
		c.DefaultHandler = handler
	}
}

// WithNamedErrorHandler makes h available under name.
func WithNamedErrorHandler(name string, h bslim.ErrorHandler) Option {
	return WithFx(fx.Provide(AsNamedErrorHandler(func() NamedErrorHandler {
		return NamedErrorHandler{Name: name, Handler: h}
	})))
}

// FxOptions returns the options that make up the app's dependency graph.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 14+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(NewMux),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewHTTPTransport),
		fx.Supply(cfg.ErrorConfig),
		fx.Provide(NewErrorMiddleware),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		fx.Provide(func(p runtimeProviderParams[E]) *Runtime[E] {
			return NewRuntime(p.Env, p.Mux, RuntimeParams{
				Errors:    p.Errors,
				Transport: p.Transport,
			})
		}),
		fx.Invoke(startServerHook),
		fx.Invoke(routing),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// NewApp creates a batteries-included app with dependency injection.
//
// The routing function can request any types that are provided via fx options.
// At minimum, it should accept *Mux for routing.
//
// Example:
//
//	bapp.NewApp[Env](func(m *bapp.Mux, h *Handlers) {
//	    m.HandleFunc("GET /items/{id}", h.GetItem, "get-item")
//	},
//	    bapp.WithErrorHandler(KindStorage, "storage", true),
//	    bapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{
		app: fx.New(FxOptions[E](routing, opts...)...),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application with the given context and stops it when ctx is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
