// Package apperr defines the error categories shared by the cart, coupon and
// order services. Transport layers map a Kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindBadRequest        Kind = "BAD_REQUEST"
	KindConflict          Kind = "CONFLICT"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindDuplicate         Kind = "DUPLICATE_RESOURCE"
	KindCartEmpty         Kind = "CART_EMPTY"
)

// parent reports the broader category a kind belongs to, if any.
func (k Kind) parent() Kind {
	switch k {
	case KindCartEmpty:
		return KindBadRequest
	case KindInsufficientStock, KindDuplicate:
		return KindConflict
	default:
		return ""
	}
}

// Sentinels for errors.Is checks. Any *Error of the same kind (or of a
// narrower kind) matches.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrBadRequest        = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock, Message: "insufficient stock"}
	ErrDuplicate         = &Error{Kind: KindDuplicate, Message: "duplicate resource"}
	ErrCartEmpty         = &Error{Kind: KindCartEmpty, Message: "cart is empty"}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind || e.Kind.parent() == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(entity, field string, value any) *Error {
	return New(KindNotFound, fmt.Sprintf("%s not found with %s '%v'", entity, field, value))
}

func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func Duplicate(format string, args ...any) *Error {
	return New(KindDuplicate, fmt.Sprintf(format, args...))
}

func CartEmpty(message string) *Error {
	return New(KindCartEmpty, message)
}

func InsufficientStock(variantID fmt.Stringer, requested, available int) *Error {
	return New(KindInsufficientStock, fmt.Sprintf(
		"insufficient stock for variant %s: requested %d, available %d", variantID, requested, available))
}

// KindOf returns the kind of the first *Error in err's chain, or "" for
// errors that did not originate from a domain rule.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the client-facing message of the first *Error in err's
// chain, without any wrapping context added on the way up.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
