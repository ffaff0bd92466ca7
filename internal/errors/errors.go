// Package errors provides the application error taxonomy.
// Services return AppError values so handlers can respond consistently
// without leaking internal details to clients.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithCause wraps internal and appends its text to the sentinel message.
// Used where the caller must see why a write was rejected.
func WithCause(sentinel *AppError, internal error) *AppError {
	msg := sentinel.Message
	if internal != nil {
		msg = fmt.Sprintf("%s: %v", sentinel.Message, internal)
	}
	return &AppError{
		Code:       sentinel.Code,
		Message:    msg,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrRequestTimeout = &AppError{Code: "REQUEST_TIMEOUT", Message: "The request took too long and was cancelled", StatusCode: http.StatusGatewayTimeout}
)

// Classify maps any error onto an AppError. Context deadlines become
// ErrRequestTimeout; other non-AppErrors become ErrInternalServer with the
// original error kept as the internal cause.
func Classify(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrRequestTimeout, err)
	default:
		return Wrap(ErrInternalServer, err)
	}
}

// Import errors.
var (
	ErrNoImportableRows   = &AppError{Code: "NO_IMPORTABLE_ROWS", Message: "No importable rows were found in the file", StatusCode: http.StatusUnprocessableEntity}
	ErrExistingFetch      = &AppError{Code: "EXISTING_FETCH_FAILED", Message: "Failed to load existing holdings", StatusCode: http.StatusInternalServerError}
	ErrMasterRegistration = &AppError{Code: "MASTER_REGISTRATION_FAILED", Message: "Failed to register securities", StatusCode: http.StatusInternalServerError}
	ErrHoldingsWrite      = &AppError{Code: "HOLDINGS_WRITE_FAILED", Message: "Failed to save holdings", StatusCode: http.StatusInternalServerError}
)

// Holding errors.
var (
	ErrHoldingNotFound = &AppError{Code: "HOLDING_NOT_FOUND", Message: "Holding not found", StatusCode: http.StatusNotFound}
)

// Security and price errors.
var (
	ErrSecurityNotFound   = &AppError{Code: "SECURITY_NOT_FOUND", Message: "Security not found", StatusCode: http.StatusNotFound}
	ErrPriceRefresh       = &AppError{Code: "PRICE_REFRESH_FAILED", Message: "Failed to refresh prices", StatusCode: http.StatusInternalServerError}
	ErrMasterDataLoad     = &AppError{Code: "MASTER_DATA_UNAVAILABLE", Message: "Master security data is unavailable", StatusCode: http.StatusBadGateway}
	ErrInvalidRefreshMode = &AppError{Code: "INVALID_REFRESH_MODE", Message: "Refresh mode must be full or retry", StatusCode: http.StatusBadRequest}
)
