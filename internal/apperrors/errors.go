// Package apperrors defines the typed failures returned to API clients.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an API error.
type Kind int

const (
	// KindInternal covers store, hashing, token and file processing failures.
	KindInternal Kind = iota
	// KindConflict is a duplicate email.
	KindConflict
	// KindUnauthorized covers bad credentials and missing or stale sessions.
	KindUnauthorized
	// KindNotFound is an unknown verification token.
	KindNotFound
	// KindValidation is a malformed request payload.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// APIError is an error safe to show to clients.
type APIError struct {
	Kind       Kind
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func newError(kind Kind, status int, message string) *APIError {
	return &APIError{Kind: kind, HTTPStatus: status, Message: message}
}

// NewErrEmailInUse is returned when registering an email that already has an account.
func NewErrEmailInUse() *APIError {
	return newError(KindConflict, http.StatusConflict, "Email in use")
}

// NewErrWrongCredentials is the single login failure, whatever check failed.
func NewErrWrongCredentials() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "Email or password is wrong")
}

// NewErrNotAuthorized is returned for a missing, invalid, expired or revoked session.
func NewErrNotAuthorized() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "Not authorized")
}

// NewErrVerificationNotFound is returned when a verification token matches no account.
func NewErrVerificationNotFound() *APIError {
	return newError(KindNotFound, http.StatusNotFound, "User not found")
}

// NewErrEmailNotFound is returned when resending verification to an unknown email.
func NewErrEmailNotFound() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "Email not found")
}

// NewErrAlreadyVerified is returned when resending verification to a verified account.
func NewErrAlreadyVerified() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, "Verification has already been passed")
}

// NewErrValidation wraps a payload validation message.
func NewErrValidation(message string) *APIError {
	return newError(KindValidation, http.StatusBadRequest, message)
}

// NewErrInternal is the only message clients see for collaborator failures.
func NewErrInternal() *APIError {
	return newError(KindInternal, http.StatusInternalServerError, "Internal server error")
}

// KindOf reports the kind of err. Anything that is not an APIError is internal.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// Public converts err into the APIError clients are allowed to see.
func Public(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewErrInternal()
}
