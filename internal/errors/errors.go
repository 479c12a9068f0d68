package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a bottles error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"    // 400
	ErrEditDisabled     ErrorCode = "EDIT_DISABLED"      // 403
	ErrNotFound         ErrorCode = "NOT_FOUND"          // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"     // 404
	ErrEditModeRequired ErrorCode = "EDIT_MODE_REQUIRED" // 409
	ErrCancelled        ErrorCode = "CANCELLED"          // 499
	ErrInternal         ErrorCode = "INTERNAL"           // 500
)

// BottleError represents a structured error with code, status, and details.
type BottleError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BottleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BottleError {
	return &BottleError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewEditDisabled creates a 403 error for deployments that ship without edit mode.
func NewEditDisabled() *BottleError {
	return &BottleError{
		Code:    ErrEditDisabled,
		Status:  403,
		Message: "edit mode is disabled in this deployment",
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(identifier string) *BottleError {
	return &BottleError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *BottleError {
	return &BottleError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewEditModeRequired creates a 409 error for structural changes attempted in view mode.
func NewEditModeRequired(op string) *BottleError {
	return &BottleError{
		Code:    ErrEditModeRequired,
		Status:  409,
		Message: fmt.Sprintf("%s requires edit mode", op),
		Details: map[string]any{"operation": op},
	}
}

// NewCancelled creates a 499 error when the caller's context is done.
func NewCancelled(op string) *BottleError {
	return &BottleError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BottleError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BottleError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a BottleError with the given code.
func Is(err error, code ErrorCode) bool {
	var bErr *BottleError
	if stderrors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}

// As is a convenience wrapper returning the BottleError inside err, if any.
func As(err error) (*BottleError, bool) {
	var bErr *BottleError
	if stderrors.As(err, &bErr) {
		return bErr, true
	}
	return nil, false
}
