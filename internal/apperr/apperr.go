// Package apperr defines the failure taxonomy shared by every public
// operation: validation, authorization, not-found, upstream provider and
// persistence failures. Handlers translate these into HTTP responses at the
// server boundary instead of leaking storage or transport errors to clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for boundary translation.
type Kind int

const (
	// KindValidation covers malformed input and failed business
	// preconditions such as insufficient balance.
	KindValidation Kind = iota
	// KindAuthz covers caller identity mismatches.
	KindAuthz
	// KindNotFound covers absent identities, ledger accounts and banks.
	KindNotFound
	// KindProvider covers payment-processor non-success or transport failure.
	KindProvider
	// KindPersistence covers store-level failures.
	KindPersistence
)

// Error carries a failure kind alongside a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation failure.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf builds a formatted validation failure.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Authz builds an authorization failure.
func Authz(msg string) *Error {
	return &Error{Kind: KindAuthz, Message: msg}
}

// NotFound builds a not-found failure.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Provider wraps an upstream payment-processor failure.
func Provider(msg string, err error) *Error {
	return &Error{Kind: KindProvider, Message: msg, Err: err}
}

// Persistence wraps a store-level failure.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// KindOf reports the taxonomy kind of err when it carries one.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// HTTPStatus maps a failure kind to its response status code.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthz:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindProvider:
		return http.StatusBadGateway
	case KindPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
