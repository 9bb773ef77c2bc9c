package services

import (
	"errors"
	"fmt"

	"github.com/fildor/atelier-api/repository"
)

// Error kinds returned by the order services. Use errors.Is to classify.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrValidationFailed = errors.New("validation failed")
	ErrUploadFailed     = errors.New("upload failed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrForbidden        = errors.New("forbidden")
	ErrDraftNotFound    = errors.New("draft not found")
	ErrInvalidStep      = errors.New("invalid wizard step")
)

// ServiceError carries a user-facing message alongside its kind
type ServiceError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the kind so errors.Is matches the sentinel
func (e *ServiceError) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) *ServiceError {
	return newError(ErrValidationFailed, format, args...)
}

// storeError maps repository failures to service kinds
func storeError(err error, notFoundMessage string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &ServiceError{Kind: ErrNotFound, Message: notFoundMessage}
	}
	return &ServiceError{Kind: ErrStoreUnavailable, Message: "the record store is unavailable, please retry", Err: err}
}

// UserMessage returns the message to show for err, or fallback when err carries none
func UserMessage(err error, fallback string) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Message != "" {
		return serviceErr.Message
	}
	return fallback
}
