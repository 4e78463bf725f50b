// Package apierror defines the stable error vocabulary of the API.
// All errors returned to clients go through this package so that responses
// stay consistent and internal details (stack traces, DB errors) never leak.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error class carried in every error response.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindNotFound           Kind = "not_found"
	KindUnauthenticated    Kind = "unauthenticated"
	KindUnauthorized       Kind = "unauthorized"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindConsistency        Kind = "consistency_error"
	KindInvalidTransition  Kind = "invalid_state_transition"
	KindDuplicateResource  Kind = "duplicate_resource"
	KindInvalidBundleGraph Kind = "invalid_bundle_graph"
	KindRateLimited        Kind = "rate_limited"
	KindInternal           Kind = "internal"
)

// Error is the canonical API error. It satisfies the error interface and maps
// to a deterministic HTTP status via Status().
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"error"`
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInvalidBundleGraph:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInsufficientStock, KindConsistency, KindInvalidTransition, KindDuplicateResource:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Convenience constructors for the common kinds.

func Validation(msg string) *Error { return New(KindValidation, msg) }
func Validationf(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}
func NotFound(resource string) *Error   { return Newf(KindNotFound, "%s no encontrado", resource) }
func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }
func Unauthorized(msg string) *Error    { return New(KindUnauthorized, msg) }
func InsufficientStock(product string) *Error {
	return Newf(KindInsufficientStock, "stock insuficiente para %s", product)
}
func Consistency(msg string) *Error       { return New(KindConsistency, msg) }
func InvalidTransition(msg string) *Error { return New(KindInvalidTransition, msg) }
func Duplicate(msg string) *Error         { return New(KindDuplicateResource, msg) }
func InvalidBundleGraph(product string) *Error {
	return Newf(KindInvalidBundleGraph, "el producto %s tiene un ciclo en sus componentes", product)
}
func RateLimited(msg string) *Error { return New(KindRateLimited, msg) }
func Internal(msg string) *Error    { return New(KindInternal, msg) }

// KindOf extracts the Kind from any error in the chain, defaulting to internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// From converts any error into an *Error. Unknown errors become a generic
// internal error so DB details never reach clients.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("Error interno del servidor")
}

// ValidationFields wraps per-field validation failures.
type ValidationFields struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func NewValidationFields(fields map[string]string) *ValidationFields {
	return &ValidationFields{Kind: KindValidation, Message: "Error de validacion", Fields: fields}
}
