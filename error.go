package bslim

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Code is an error code that mirrors the http status codes. It can be used to create errors to pass around across
// middleware layers to handle errors structurally.
type Code int

const (
	CodeUnknown                      Code = 0
	CodeBadRequest                   Code = http.StatusBadRequest                   // RFC 9110, 15.5.1
	CodeUnauthorized                 Code = http.StatusUnauthorized                 // RFC 9110, 15.5.2
	CodePaymentRequired              Code = http.StatusPaymentRequired              // RFC 9110, 15.5.3
	CodeForbidden                    Code = http.StatusForbidden                    // RFC 9110, 15.5.4
	CodeNotFound                     Code = http.StatusNotFound                     // RFC 9110, 15.5.5
	CodeMethodNotAllowed             Code = http.StatusMethodNotAllowed             // RFC 9110, 15.5.6
	CodeNotAcceptable                Code = http.StatusNotAcceptable                // RFC 9110, 15.5.7
	CodeProxyAuthRequired            Code = http.StatusProxyAuthRequired            // RFC 9110, 15.5.8
	CodeRequestTimeout               Code = http.StatusRequestTimeout               // RFC 9110, 15.5.9
	CodeConflict                     Code = http.StatusConflict                     // RFC 9110, 15.5.10
	CodeGone                         Code = http.StatusGone                         // RFC 9110, 15.5.11
	CodeLengthRequired               Code = http.StatusLengthRequired               // RFC 9110, 15.5.12
	CodePreconditionFailed           Code = http.StatusPreconditionFailed           // RFC 9110, 15.5.13
	CodeRequestEntityTooLarge        Code = http.StatusRequestEntityTooLarge        // RFC 9110, 15.5.14
	CodeRequestURITooLong            Code = http.StatusRequestURITooLong            // RFC 9110, 15.5.15
	CodeUnsupportedMediaType         Code = http.StatusUnsupportedMediaType         // RFC 9110, 15.5.16
	CodeRequestedRangeNotSatisfiable Code = http.StatusRequestedRangeNotSatisfiable // RFC 9110, 15.5.17
	CodeExpectationFailed            Code = http.StatusExpectationFailed            // RFC 9110, 15.5.18
	CodeTeapot                       Code = http.StatusTeapot                       // RFC 9110, 15.5.19 (Unused)
	CodeMisdirectedRequest           Code = http.StatusMisdirectedRequest           // RFC 9110, 15.5.20
	CodeUnprocessableEntity          Code = http.StatusUnprocessableEntity          // RFC 9110, 15.5.21
	CodeLocked                       Code = http.StatusLocked                       // RFC 4918, 11.3
	CodeFailedDependency             Code = http.StatusFailedDependency             // RFC 4918, 11.4
	CodeTooEarly                     Code = http.StatusTooEarly                     // RFC 8470, 5.2.
	CodeUpgradeRequired              Code = http.StatusUpgradeRequired              // RFC 9110, 15.5.22
	CodePreconditionRequired         Code = http.StatusPreconditionRequired         // RFC 6585, 3
	CodeTooManyRequests              Code = http.StatusTooManyRequests              // RFC 6585, 4
	CodeRequestHeaderFieldsTooLarge  Code = http.StatusRequestHeaderFieldsTooLarge  // RFC 6585, 5
	CodeUnavailableForLegalReasons   Code = http.StatusUnavailableForLegalReasons   // RFC 7725, 3

	CodeInternalServerError           Code = http.StatusInternalServerError           // RFC 9110, 15.6.1
	CodeNotImplemented                Code = http.StatusNotImplemented                // RFC 9110, 15.6.2
	CodeBadGateway                    Code = http.StatusBadGateway                    // RFC 9110, 15.6.3
	CodeServiceUnavailable            Code = http.StatusServiceUnavailable            // RFC 9110, 15.6.4
	CodeGatewayTimeout                Code = http.StatusGatewayTimeout                // RFC 9110, 15.6.5
	CodeHTTPVersionNotSupported       Code = http.StatusHTTPVersionNotSupported       // RFC 9110, 15.6.6
	CodeVariantAlsoNegotiates         Code = http.StatusVariantAlsoNegotiates         // RFC 2295, 8.1
	CodeInsufficientStorage           Code = http.StatusInsufficientStorage           // RFC 4918, 11.5
	CodeLoopDetected                  Code = http.StatusLoopDetected                  // RFC 5842, 7.2
	CodeNotExtended                   Code = http.StatusNotExtended                   // RFC 2774, 7
	CodeNetworkAuthenticationRequired Code = http.StatusNetworkAuthenticationRequired // RFC 6585, 6
)

// Error is an HTTP-domain error: it carries a status code and, when created while a request was
// at hand, that request. Error middleware uses the request to render the response in the context
// the error was raised in (e.g. with the routing results a route lookup attached to it).
type Error struct {
	code Code
	err  error
	req  *http.Request
}

// NewError inits a new error given the error code.
func NewError(c Code, underlying error) *Error {
	return &Error{code: c, err: underlying}
}

// NewHTTPError inits a new error given the error code and the request it was raised for.
func NewHTTPError(r *http.Request, c Code, underlying error) *Error {
	return &Error{code: c, err: underlying, req: r}
}

func (e *Error) Code() Code { return e.code }

// Request returns the request the error was raised for, nil if it was created with [NewError].
func (e *Error) Request() *http.Request { return e.req }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.err }

func (e *Error) Error() string {
	status := http.StatusText(int(e.Code()))
	if status == "" {
		status = "Unknown"
	}

	if e.err == nil {
		return status
	}

	return fmt.Sprintf("%s: %s", status, e.err.Error())
}

// Kind returns the specialized kind for well known codes and [KindHTTP] otherwise.
func (e *Error) Kind() *Kind {
	if k, ok := codeKinds[e.code]; ok {
		return k
	}

	return KindHTTP
}

// Title is a short human readable summary, e.g. "404 Not Found".
func (e *Error) Title() string {
	if d, ok := codeDescriptions[e.code]; ok {
		return d.title
	}

	status := http.StatusText(int(e.code))
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%d %s", e.code, status)
}

// Description explains the error to the client in one sentence.
func (e *Error) Description() string {
	if d, ok := codeDescriptions[e.code]; ok {
		return d.description
	}

	return ""
}

var codeKinds = map[Code]*Kind{
	CodeBadRequest:          KindBadRequest,
	CodeUnauthorized:        KindUnauthorized,
	CodeForbidden:           KindForbidden,
	CodeNotFound:            KindNotFound,
	CodeMethodNotAllowed:    KindMethodNotAllowed,
	CodeGone:                KindGone,
	CodeInternalServerError: KindInternalServerError,
	CodeNotImplemented:      KindNotImplemented,
}

var codeDescriptions = map[Code]struct{ title, description string }{
	CodeBadRequest: {"400 Bad Request",
		"The server cannot or will not process the request due to an apparent client error."},
	CodeUnauthorized: {"401 Unauthorized",
		"The request requires valid user authentication."},
	CodeForbidden: {"403 Forbidden",
		"You are not permitted to perform the requested operation."},
	CodeNotFound: {"404 Not Found",
		"The requested resource could not be found. Please verify the URI and try again."},
	CodeMethodNotAllowed: {"405 Method Not Allowed",
		"The request method is not supported for the requested resource."},
	CodeGone: {"410 Gone",
		"The target resource is no longer available at the origin server."},
	CodeInternalServerError: {"500 Internal Server Error",
		"Unexpected condition encountered preventing server from fulfilling request."},
	CodeNotImplemented: {"501 Not Implemented",
		"The server does not support the functionality required to fulfill the request."},
}

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if httpErr, ok := asError(err); ok {
		return httpErr.Code()
	}
	return CodeUnknown
}

// asError uses errors.As to unwrap any error and look for an *Error.
func asError(err error) (*Error, bool) {
	var httpErr *Error
	ok := errors.As(err, &httpErr)
	return httpErr, ok
}
