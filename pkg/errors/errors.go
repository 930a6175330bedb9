package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrInvalidUpload
	ErrStorageNotFound
	ErrStorageRead
	ErrStorageWrite
	ErrPermission
	ErrAPIClient
	ErrAPIServer
	ErrRateLimited
	ErrInternal
)

// StatusCode maps an error code to the HTTP status the web layer returns.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound, ErrStorageNotFound:
		return http.StatusNotFound
	case ErrValidation, ErrAPIClient:
		return http.StatusBadRequest
	case ErrInvalidUpload, ErrPermission:
		return http.StatusForbidden
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewValidation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func NewInvalidUpload(uploadID string) *AppError {
	return &AppError{
		Code:    ErrInvalidUpload,
		Message: fmt.Sprintf("upload %s has not passed validation", uploadID),
	}
}

func NewStorageNotFound(bucket, key string, err error) *AppError {
	return &AppError{
		Code:    ErrStorageNotFound,
		Message: fmt.Sprintf("object %s/%s not found", bucket, key),
		Err:     err,
	}
}

func NewStorageRead(bucket, key string, err error) *AppError {
	return &AppError{
		Code:    ErrStorageRead,
		Message: fmt.Sprintf("failed to read %s/%s", bucket, key),
		Err:     err,
	}
}

func NewStorageWrite(bucket, key string, err error) *AppError {
	return &AppError{
		Code:    ErrStorageWrite,
		Message: fmt.Sprintf("failed to write %s/%s", bucket, key),
		Err:     err,
	}
}

func NewPermission() *AppError {
	return &AppError{
		Code:    ErrPermission,
		Message: "permission denied",
	}
}

// NewAPIClient wraps a 4xx from the notifications API; the message is shown
// to the user verbatim on the originating form.
func NewAPIClient(status int, message string) *AppError {
	return &AppError{
		Code:    ErrAPIClient,
		Message: message,
		Err:     fmt.Errorf("api returned %d", status),
	}
}

func NewAPIServer(status int) *AppError {
	return &AppError{
		Code:    ErrAPIServer,
		Message: "the notifications service is unavailable, try again later",
		Err:     fmt.Errorf("api returned %d", status),
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
