package bslim

import (
	"github.com/cockroachdb/errors"
)

// Kind is a stable tag that identifies a family of errors. Kinds form a tree through their parent
// link; error handlers can be registered for a single kind or for a kind and everything below it.
// Kinds are compared by identity, so declare them once, typically as package level variables:
//
//	var KindStorage = bslim.NewKind("storage", bslim.KindError)
//	var KindStorageTimeout = bslim.NewKind("storage_timeout", KindStorage)
type Kind struct {
	name   string
	parent *Kind
}

// NewKind declares a kind below parent. A nil parent declares a new root.
func NewKind(name string, parent *Kind) *Kind {
	return &Kind{name: name, parent: parent}
}

// Name returns the name the kind was declared with.
func (k *Kind) Name() string { return k.name }

// Parent returns the kind this one was declared under, or nil for a root.
func (k *Kind) Parent() *Kind { return k.parent }

func (k *Kind) String() string {
	if k == nil {
		return "<nil>"
	}

	return k.name
}

// IsSubKindOf reports whether k is a strict descendant of ancestor. A kind is not a sub-kind of
// itself.
func (k *Kind) IsSubKindOf(ancestor *Kind) bool {
	if k == nil || ancestor == nil {
		return false
	}

	for p := k.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}

	return false
}

// Is reports whether k equals other or descends from it.
func (k *Kind) Is(other *Kind) bool {
	return k == other || k.IsSubKindOf(other)
}

// Kinded is implemented by errors that carry their own kind.
type Kinded interface {
	error
	Kind() *Kind
}

var (
	// KindError is the root of the built-in tree. Errors without a kind of their own are of this kind.
	KindError = NewKind("error", nil)
	// KindPanic is the kind of panics recovered while serving a request.
	KindPanic = NewKind("panic", KindError)

	// KindHTTP is the kind of [*Error] values whose code has no specialized kind.
	KindHTTP                = NewKind("http", KindError)
	KindBadRequest          = NewKind("http_bad_request", KindHTTP)
	KindUnauthorized        = NewKind("http_unauthorized", KindHTTP)
	KindForbidden           = NewKind("http_forbidden", KindHTTP)
	KindNotFound            = NewKind("http_not_found", KindHTTP)
	KindMethodNotAllowed    = NewKind("http_method_not_allowed", KindHTTP)
	KindGone                = NewKind("http_gone", KindHTTP)
	KindInternalServerError = NewKind("http_internal_server_error", KindHTTP)
	KindNotImplemented      = NewKind("http_not_implemented", KindHTTP)
)

// KindOf returns the kind of the first error in err's chain that carries one, and [KindError] if
// none does. Errors whose Kind method returns nil are skipped.
func KindOf(err error) *Kind {
	kind := KindError
	walkChain(err, func(e error) bool {
		if kinded, ok := e.(Kinded); ok && kinded.Kind() != nil {
			kind = kinded.Kind()
			return true
		}

		return false
	})

	return kind
}

// walkChain calls match for err and every error it wraps, depth-first, until match returns true.
func walkChain(err error, match func(error) bool) bool {
	for err != nil {
		if match(err) {
			return true
		}

		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if walkChain(e, match) {
					return true
				}
			}

			return false
		}

		err = errors.UnwrapOnce(err)
	}

	return false
}
