package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by dispatch operations.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyAssigned     = "ALREADY_ASSIGNED"
	CodeResourceUnavailable = "RESOURCE_UNAVAILABLE"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeTransactionConflict = "TRANSACTION_CONFLICT"
	CodeProviderDegraded    = "PROVIDER_DEGRADED"
	CodeBadRequest          = "BAD_REQUEST"
	CodeInternal            = "INTERNAL_ERROR"
)

// ServiceError carries a stable code alongside the message so handlers can
// map failures to HTTP without string matching.
type ServiceError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Cause      error  `json:"-"`
}

func (e ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e ServiceError) Unwrap() error {
	return e.Cause
}

func NewNotFoundError(resource string) error {
	return ServiceError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func NewAlreadyAssignedError(message string) error {
	return ServiceError{
		Code:       CodeAlreadyAssigned,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewResourceUnavailableError(message string) error {
	return ServiceError{
		Code:       CodeResourceUnavailable,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInvalidTransitionError(from, to string) error {
	return ServiceError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("status cannot change from %s to %s", from, to),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewTransactionConflictError(cause error) error {
	return ServiceError{
		Code:       CodeTransactionConflict,
		Message:    "storage transaction conflicted, retry the operation",
		StatusCode: http.StatusConflict,
		Cause:      cause,
	}
}

func NewProviderDegradedError(provider string, cause error) error {
	return ServiceError{
		Code:       CodeProviderDegraded,
		Message:    fmt.Sprintf("%s provider degraded", provider),
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

func NewBadRequestError(message string) error {
	return ServiceError{
		Code:       CodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewInternalError(message string, cause error) error {
	return ServiceError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// AsServiceError extracts a ServiceError from err's chain.
func AsServiceError(err error) (ServiceError, bool) {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return ServiceError{}, false
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	svcErr, ok := AsServiceError(err)
	return ok && svcErr.Code == code
}
