package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeCredential     ErrorType = "credential"
	ErrorTypeStore          ErrorType = "store"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeExternal       ErrorType = "external"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Timeout    bool                   `json:"timeout,omitempty"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewFieldValidationError creates a validation error whose details are a field -> message map
func NewFieldValidationError(message string, fields map[string]string) *AppError {
	details := make(map[string]interface{}, len(fields))
	for field, msg := range fields {
		details[field] = msg
	}
	return NewValidationError(message, details)
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewCredentialError creates an error for an identity provider rejection
// (bad credentials, duplicate account, cancelled federated sign-in).
func NewCredentialError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeCredential,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Internal:   internal,
	}
}

// NewStoreError creates an error for a profile store read or write failure
func NewStoreError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeStore,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewTimeoutError creates a credential or store error flagged as a timeout
func NewTimeoutError(errType ErrorType, message string, internal error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Timeout:    true,
		Internal:   internal,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// As extracts the AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errType
}

// IsTimeout reports whether err is a timeout-flagged AppError or a context deadline
func IsTimeout(err error) bool {
	if appErr, ok := As(err); ok && appErr.Timeout {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

// Message returns the user-facing message of err
func Message(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Timeout   bool                   `json:"timeout,omitempty"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}

// NewErrorResponse builds the JSON error envelope for appErr
func NewErrorResponse(appErr *AppError, requestID string) ErrorResponse {
	var resp ErrorResponse
	resp.Success = false
	resp.Error.Type = appErr.Type
	resp.Error.Message = appErr.Message
	resp.Error.Timeout = appErr.Timeout
	resp.Error.Details = appErr.Details
	resp.Error.RequestID = requestID
	resp.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return resp
}
