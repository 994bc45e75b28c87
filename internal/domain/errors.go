package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure class in the evaluation pipeline.
type ErrorCode string

const (
	// Capture errors
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrInvalidState     ErrorCode = "INVALID_STATE"

	// Submission errors
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Provider/transport errors
	ErrInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrNetworkFailure     ErrorCode = "NETWORK_FAILURE"
	ErrServiceError       ErrorCode = "SERVICE_ERROR"

	// Validator errors
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"

	ErrInternal ErrorCode = "INTERNAL_ERROR"
	ErrNotFound ErrorCode = "NOT_FOUND"
)

// DomainError carries a failure class plus a human-readable message.
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

func NewPermissionDeniedError(message string, err error) *DomainError {
	return NewError(ErrPermissionDenied, message, err)
}

func NewInvalidStateError(message string) *DomainError {
	return NewError(ErrInvalidState, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInvalidCredentialsError(operation string, err error) *DomainError {
	return NewError(ErrInvalidCredentials, fmt.Sprintf("%s failed: API credentials were rejected, check your API key", operation), err)
}

func NewRateLimitedError(operation string, err error) *DomainError {
	return NewError(ErrRateLimited, fmt.Sprintf("%s failed: provider rate limit reached, wait before retrying", operation), err)
}

func NewNetworkFailureError(operation string, err error) *DomainError {
	return NewError(ErrNetworkFailure, fmt.Sprintf("%s failed: could not reach the provider, check your connection", operation), err)
}

func NewServiceError(operation string, err error) *DomainError {
	return NewError(ErrServiceError, fmt.Sprintf("%s failed: the provider returned an unexpected error, try again later", operation), err)
}

func NewMalformedResponseError(message string, err error) *DomainError {
	return NewError(ErrMalformedResponse, message, err)
}

func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

// CodeOf extracts the error class from err, or ErrInternal for
// anything that is not a DomainError.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrInternal
}
