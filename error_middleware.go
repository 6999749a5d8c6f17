package bslim

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Flags are passed unchanged to every error handler the [ErrorMiddleware] invokes.
type Flags struct {
	DisplayErrorDetails bool
	LogErrors           bool
	LogErrorDetails     bool
}

// ErrorHandler renders the response for an error that was raised while serving r. The writer is
// reset before the handler is called. An error returned by the handler is not handled any further
// by the middleware.
type ErrorHandler interface {
	HandleError(w ResponseWriter, r *http.Request, err error, flags Flags) error
}

// ErrorHandlerFunc allow casting a function to implement [ErrorHandler].
type ErrorHandlerFunc func(w ResponseWriter, r *http.Request, err error, flags Flags) error

// HandleError implements the [ErrorHandler] interface.
func (f ErrorHandlerFunc) HandleError(w ResponseWriter, r *http.Request, err error, flags Flags) error {
	return f(w, r, err, flags)
}

// PanicError is the error a recovered panic is turned into. Its kind is [KindPanic].
type PanicError struct {
	value any
	err   error
}

func newPanicError(v any) *PanicError {
	if err, ok := v.(error); ok {
		return &PanicError{value: v, err: errors.Wrap(err, "recovered")}
	}

	return &PanicError{value: v, err: errors.Newf("recovered: %v", v)}
}

// Value returns the value that was passed to panic.
func (e *PanicError) Value() any { return e.value }

func (e *PanicError) Error() string { return e.err.Error() }
func (e *PanicError) Unwrap() error { return e.err }
func (e *PanicError) Kind() *Kind   { return KindPanic }

func (e *PanicError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// requestCarrier is implemented by errors that know the request they were raised for.
type requestCarrier interface {
	error
	Request() *http.Request
}

type subKindHandler struct {
	kind *Kind
	ref  any
}

// ErrorMiddleware turns errors (and panics) from the handlers it wraps into responses. The handler
// that renders the response is picked by the error's [Kind]: a handler registered for exactly
// that kind wins, then handlers registered for a kind and its sub-kinds (in registration order),
// and finally the default handler.
//
// Handlers are registered while setting up. Registering after the middleware served its first
// request panics.
type ErrorMiddleware struct {
	resolver        CallableResolver
	responseFactory ResponseFactory
	flags           Flags
	logs            *zap.Logger

	handlers        map[*Kind]any
	subKindHandlers []subKindHandler
	subKindIndex    map[*Kind]int

	defaultHandler any
	builtinOnce    sync.Once
	builtin        *DefaultErrorHandler
	serving        atomic.Bool
}

// ErrorMiddlewareOption configures optional parts of the [ErrorMiddleware].
type ErrorMiddlewareOption func(*ErrorMiddleware)

// WithErrorLogger sets the logger given to the built-in default error handler.
func WithErrorLogger(logs *zap.Logger) ErrorMiddlewareOption {
	return func(m *ErrorMiddleware) {
		m.logs = logs
	}
}

// NewErrorMiddleware inits the middleware. The flags are forwarded to whichever handler renders
// an error; the response factory is only used to build the built-in default handler.
func NewErrorMiddleware(
	resolver CallableResolver,
	responseFactory ResponseFactory,
	displayErrorDetails, logErrors, logErrorDetails bool,
	opts ...ErrorMiddlewareOption,
) *ErrorMiddleware {
	m := &ErrorMiddleware{
		resolver:        resolver,
		responseFactory: responseFactory,
		flags: Flags{
			DisplayErrorDetails: displayErrorDetails,
			LogErrors:           logErrors,
			LogErrorDetails:     logErrorDetails,
		},
		logs:         zap.NewNop(),
		handlers:     map[*Kind]any{},
		subKindIndex: map[*Kind]int{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Flags returns the flags the middleware was constructed with.
func (m *ErrorMiddleware) Flags() Flags { return m.flags }

// Middleware returns the [Middleware] that runs [ErrorMiddleware.Process] for every request.
func (m *ErrorMiddleware) Middleware() Middleware {
	return func(next BareHandler) BareHandler {
		return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
			return m.Process(w, r, next)
		})
	}
}

// Process serves the request with next. If next fails or panics the failure is handed to
// [ErrorMiddleware.HandleException] and its result is returned instead.
func (m *ErrorMiddleware) Process(w ResponseWriter, r *http.Request, next BareHandler) error {
	m.serving.Store(true)

	if err := serveRecovered(next, w, r); err != nil {
		return m.HandleException(w, r, err)
	}

	return nil
}

func serveRecovered(next BareHandler, w ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler { //nolint:errorlint
				panic(v)
			}

			err = newPanicError(v)
		}
	}()

	return next.ServeBareBHTTP(w, r)
}

// HandleException renders err with the handler registered for its kind. If an error in err's chain
// carries the request it was raised for, the first such request is passed to the handler instead
// of r. Whatever the handler
// returns is returned as-is. Once the response was flushed to the client err is returned instead,
// since nothing can replace it anymore.
func (m *ErrorMiddleware) HandleException(w ResponseWriter, r *http.Request, err error) error {
	walkChain(err, func(e error) bool {
		if carrier, ok := e.(requestCarrier); ok && carrier.Request() != nil {
			r = carrier.Request()
			return true
		}

		return false
	})

	kind := KindOf(err)

	handler, rerr := m.ErrorHandler(kind)
	if rerr != nil {
		return errors.Wrapf(rerr, "resolve error handler for kind %q", kind)
	}

	if s, ok := w.(interface{ Sent() bool }); ok && s.Sent() {
		return errors.Wrap(err, "response was already sent")
	}

	w.Reset()

	return handler.HandleError(w, r, err, m.flags)
}

// ErrorHandler returns the resolved handler for errors of the given kind.
func (m *ErrorMiddleware) ErrorHandler(kind *Kind) (ErrorHandler, error) {
	if ref, ok := m.handlers[kind]; ok && ref != nil {
		return m.resolver.Resolve(ref)
	}

	if idx, ok := m.subKindIndex[kind]; ok && m.subKindHandlers[idx].ref != nil {
		return m.resolver.Resolve(m.subKindHandlers[idx].ref)
	}

	for _, sub := range m.subKindHandlers {
		if kind.IsSubKindOf(sub.kind) {
			return m.resolver.Resolve(sub.ref)
		}
	}

	return m.DefaultErrorHandler()
}

// DefaultErrorHandler returns the resolved default handler. While none is set, the built-in
// [DefaultErrorHandler] is returned; it is created on first use and reused afterwards.
func (m *ErrorMiddleware) DefaultErrorHandler() (ErrorHandler, error) {
	if m.defaultHandler != nil {
		return m.resolver.Resolve(m.defaultHandler)
	}

	m.builtinOnce.Do(func() {
		m.builtin = NewDefaultErrorHandler(m.responseFactory, m.logs)
	})

	return m.builtin, nil
}

// SetDefaultErrorHandler sets the handler for errors no other handler is registered for. Setting it
// to nil restores the built-in one.
func (m *ErrorMiddleware) SetDefaultErrorHandler(ref any) *ErrorMiddleware {
	m.ensureNotServing()
	m.defaultHandler = ref

	return m
}

// SetErrorHandler registers the handler for errors of the given kind. With handleSubKinds the
// handler also renders errors of every kind declared below it. Registering a kind again replaces
// the earlier handler; a replaced sub-kind handler keeps its place in the lookup order.
func (m *ErrorMiddleware) SetErrorHandler(kind *Kind, ref any, handleSubKinds bool) *ErrorMiddleware {
	m.ensureNotServing()

	if !handleSubKinds {
		m.handlers[kind] = ref
		return m
	}

	if idx, ok := m.subKindIndex[kind]; ok {
		m.subKindHandlers[idx].ref = ref
		return m
	}

	m.subKindIndex[kind] = len(m.subKindHandlers)
	m.subKindHandlers = append(m.subKindHandlers, subKindHandler{kind: kind, ref: ref})

	return m
}

func (m *ErrorMiddleware) ensureNotServing() {
	if m.serving.Load() {
		panic("bslim: cannot register error handlers after serving")
	}
}
