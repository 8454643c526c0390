package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific payload field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a terminal write error: the platform (or client-side
// pre-validation) rejected the payload. Never retried automatically.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NetworkError is a transient transport failure. The caller may retry reads
// manually; writes are never retried.
type NetworkError struct {
	Err error
}

func NewNetworkError(err error) error {
	return &NetworkError{Err: err}
}

func (err *NetworkError) Error() string {
	if err.Err == nil {
		return "network error"
	}
	return "network error: " + err.Err.Error()
}

func (err *NetworkError) Unwrap() error { return err.Err }

// AuthorizationError is a policy denial by the platform. Terminal for the call.
type AuthorizationError struct {
	Reason string
}

func NewAuthorizationError(reason string) error {
	return &AuthorizationError{Reason: reason}
}

func (err *AuthorizationError) Error() string { return err.Reason }

// NotFoundError reports a missing record or route. Terminal for the call.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err *NotFoundError) Error() string { return err.Resource + " not found" }

func IsNetwork(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

func IsAuthorization(err error) bool {
	var e *AuthorizationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// ValidationFields extracts field-level detail from a validation error, if any.
func ValidationFields(err error) []FieldError {
	var e *ValidationError
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
