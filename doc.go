// Package bslim provides buffered HTTP response handling with error-returning handlers and an error
// middleware that dispatches failures to handlers by the kind of error.
//
// # Overview
//
// Handlers write to a buffered [ResponseWriter] and return an error instead of writing the error
// response inline. Because nothing reaches the client until the handler returns, whatever was
// written can still be replaced when the handler fails.
//
//	mux := bslim.NewServeMux()
//	mux.HandleFunc("GET /items/{id}", func(ctx context.Context, w bslim.ResponseWriter, r *http.Request) error {
//	    item, err := db.GetItem(ctx, r.PathValue("id"))
//	    if err != nil {
//	        return bslim.NewError(bslim.CodeNotFound, err)
//	    }
//	    return json.NewEncoder(w).Encode(item)
//	}, "get-item")
//
// # Buffered Response Writer
//
// The [ResponseWriter] interface extends http.ResponseWriter with buffering:
//
//   - [ResponseWriter.Reset] clears the buffer and headers for a fresh response
//   - [ResponseWriter.FlushBuffer] writes buffered content to the underlying writer
//   - [ResponseWriter.Free] returns the buffer to a pool (called automatically by the mux)
//
// Once a handler flushed explicitly the response can no longer be replaced.
//
// # Error Kinds
//
// Every error has a [Kind]. Kinds form a tree: [KindError] is the root of the built-in kinds,
// [KindPanic] is the kind of recovered panics and every [*Error] has a kind below [KindHTTP].
// Errors declare their own kind by implementing [Kinded]:
//
//	var KindStorage = bslim.NewKind("storage", bslim.KindError)
//
//	type StorageError struct{ Table string }
//
//	func (e StorageError) Error() string     { return "table " + e.Table + " is unavailable" }
//	func (e StorageError) Kind() *bslim.Kind { return KindStorage }
//
// # Error Middleware
//
// The [ErrorMiddleware] catches errors and panics of the handlers it wraps and hands them to the
// [ErrorHandler] registered for the error's kind:
//
//	errs := bslim.NewErrorMiddleware(bslim.NewCallableResolver(nil), bslim.NewResponseFactory(), false, true, true)
//	errs.SetErrorHandler(KindStorage, storageErrorHandler, true)
//
//	mux.Use(errs.Middleware(), mux.RoutingMiddleware())
//
// The handler is looked up in this order:
//
//  1. a handler registered for exactly the error's kind
//  2. a handler registered with handleSubKinds for exactly the error's kind
//  3. the first handler, in registration order, registered with handleSubKinds for an ancestor
//  4. the default handler
//
// Handlers are given as an [ErrorHandler], a function with its signature, or a name that the
// [CallableResolver] resolves. Unless replaced with [ErrorMiddleware.SetDefaultErrorHandler] the
// default is a [DefaultErrorHandler], built on first use.
//
// # Default Error Handler
//
// The [DefaultErrorHandler] renders errors in the format the client accepts: JSON, XML, YAML,
// MessagePack, plain text or HTML (the fallback). The status is the code of an [*Error] and 500
// otherwise. With DisplayErrorDetails the body lists the error chain; without it only the title of
// the error is shown. The error is logged with zap and recorded on the request's trace span.
//
// # Routing
//
// [ServeMux.RoutingMiddleware] looks up the route before the rest of the chain runs and stores
// the [RoutingResults] in the request context. Requests without a route fail with a 404 or 405
// [*Error] that the error middleware renders like any other error.
//
// # Named Routes and URL Reversing
//
// Routes can be named for URL generation:
//
//	mux.HandleFunc("GET /users/{id}", getUser, "get-user")
//	url, err := mux.Reverse("get-user", "123") // "/users/123"
//
// # Converting to Standard Library
//
//	stdHandler := bslim.ToStd(bslim.Wrap(handler, middleware...), bufferLimit, logger)
//
// [ToStd] buffers the response and renders errors no middleware handled with the standard
// status text.
package bslim
