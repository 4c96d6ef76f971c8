package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getevo/evo/v2/lib/outcome"
	"github.com/getevo/evo/v2/lib/text"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication & Authorization errors
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeForbidden    ErrorCode = "forbidden"
	ErrorCodeInvalidToken ErrorCode = "invalid_token"

	// Input validation errors
	ErrorCodeInvalidInput    ErrorCode = "invalid_input"
	ErrorCodeInvalidAgentID  ErrorCode = "invalid_agent_id"
	ErrorCodeInvalidConfig   ErrorCode = "invalid_config"
	ErrorCodeMissingRequired ErrorCode = "missing_required"

	// Resource errors
	ErrorCodeNotFound       ErrorCode = "not_found"
	ErrorCodeAgentNotFound  ErrorCode = "agent_not_found"
	ErrorCodePluginNotFound ErrorCode = "plugin_not_found"
	ErrorCodeConfigNotFound ErrorCode = "config_not_found"

	// Permission errors
	ErrorCodeAccessDenied ErrorCode = "access_denied"

	// Internal / upstream errors
	ErrorCodeInternalError ErrorCode = "internal_error"
	ErrorCodeDatabaseError ErrorCode = "database_error"
	ErrorCodeUpstreamError ErrorCode = "upstream_error"
	ErrorCodeCorruptConfig ErrorCode = "corrupt_config"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode `json:"error"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Details    string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Response returns an outcome.Response for the error
func (e AppError) Response() outcome.Response {
	return outcome.Response{
		StatusCode: e.StatusCode,
		Data: text.ToJSON(map[string]interface{}{
			"error":   string(e.Code),
			"message": e.Message,
		}),
	}
}

// NewError creates a new AppError
func NewError(code ErrorCode, message string, statusCode int) AppError {
	return AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewErrorWithDetails creates a new AppError with additional details
func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details string) AppError {
	return AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Predefined common errors
var (
	ErrUnauthorized = AppError{
		Code:       ErrorCodeUnauthorized,
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrInvalidToken = AppError{
		Code:       ErrorCodeInvalidToken,
		Message:    "Invalid or expired token",
		StatusCode: http.StatusUnauthorized,
	}

	ErrAccessDenied = AppError{
		Code:       ErrorCodeAccessDenied,
		Message:    "Access denied to this resource",
		StatusCode: http.StatusForbidden,
	}

	ErrInvalidInput = AppError{
		Code:       ErrorCodeInvalidInput,
		Message:    "Invalid request data",
		StatusCode: http.StatusBadRequest,
	}

	ErrAgentNotFound = AppError{
		Code:       ErrorCodeAgentNotFound,
		Message:    "Agent not found",
		StatusCode: http.StatusNotFound,
	}

	ErrPluginNotFound = AppError{
		Code:       ErrorCodePluginNotFound,
		Message:    "Unknown plugin",
		StatusCode: http.StatusNotFound,
	}

	ErrConfigNotFound = AppError{
		Code:       ErrorCodeConfigNotFound,
		Message:    "Plugin configuration not found",
		StatusCode: http.StatusNotFound,
	}

	ErrNotFound = AppError{
		Code:       ErrorCodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrInternalError = AppError{
		Code:       ErrorCodeInternalError,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrDatabaseError = AppError{
		Code:       ErrorCodeDatabaseError,
		Message:    "Database operation failed",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrCorruptConfig surfaces an undecryptable or unparseable stored plugin
	// configuration instead of degrading to an empty object.
	ErrCorruptConfig = AppError{
		Code:       ErrorCodeCorruptConfig,
		Message:    "Stored plugin configuration is corrupt",
		StatusCode: http.StatusInternalServerError,
	}
)

// ErrConfigValidation wraps per-field schema validation errors.
func ErrConfigValidation(errors map[string]string) AppError {
	detail, _ := json.Marshal(errors)
	return NewErrorWithDetails(ErrorCodeInvalidConfig, "Plugin configuration is invalid", http.StatusBadRequest, string(detail))
}

// ErrUpstream maps a third-party API failure.
func ErrUpstream(service string, err error) AppError {
	return NewErrorWithDetails(ErrorCodeUpstreamError, fmt.Sprintf("%s request failed", service), http.StatusBadGateway, err.Error())
}

// Helper function to create outcome.Response from AppError
func Error(err AppError) outcome.Response {
	return err.Response()
}

// =====================================================
// STANDARDIZED SUCCESS RESPONSE SYSTEM
// =====================================================

// APIResponse represents a standardized API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (r APIResponse) ToJSON() []byte {
	b, _ := json.Marshal(r)
	return b
}

// Meta contains metadata for API responses
type Meta struct {
	Page       int   `json:"page,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"total_pages,omitempty"`
	Count      int   `json:"count,omitempty"`
}

// OK creates a standardized success response
func OK(data interface{}) outcome.Response {
	return outcome.Response{
		ContentType: "application/json",
		StatusCode:  http.StatusOK,
		Data: APIResponse{
			Success: true,
			Data:    data,
		}.ToJSON(),
	}
}

// OKWithMessage creates a success response with a message
func OKWithMessage(data interface{}, message string) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusOK,
		Data: APIResponse{
			Success: true,
			Data:    data,
			Message: message,
		}.ToJSON(),
	}
}

// OKWithMeta creates a success response with metadata
func OKWithMeta(data interface{}, meta *Meta) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusOK,
		Data: APIResponse{
			Success: true,
			Data:    data,
			Meta:    meta,
		}.ToJSON(),
	}
}

// Created creates a 201 Created response
func Created(data interface{}) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusCreated,
		Data: APIResponse{
			Success: true,
			Data:    data,
		}.ToJSON(),
	}
}

// List creates a response for lists/collections with count
func List(data interface{}, count int) outcome.Response {
	return OKWithMeta(data, &Meta{Count: count})
}

// Message creates a response with only a success message
func Message(message string) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusOK,
		Data: APIResponse{
			Success: true,
			Message: message,
		}.ToJSON(),
	}
}

// Unauthorized creates a 401 Unauthorized response
func Unauthorized(message string) outcome.Response {
	return Error(NewError(ErrorCodeUnauthorized, message, http.StatusUnauthorized))
}

// Forbidden creates a 403 Forbidden response
func Forbidden(message string) outcome.Response {
	return Error(NewError(ErrorCodeForbidden, message, http.StatusForbidden))
}

// BadRequest creates a 400 Bad Request response
func BadRequest(message string) outcome.Response {
	return Error(NewError(ErrorCodeInvalidInput, message, http.StatusBadRequest))
}

// NotFound creates a 404 Not Found response
func NotFound(message string) outcome.Response {
	return Error(NewError(ErrorCodeNotFound, message, http.StatusNotFound))
}

// InternalError creates a 500 Internal Server Error response
func InternalError(message string) outcome.Response {
	return Error(NewError(ErrorCodeInternalError, message, http.StatusInternalServerError))
}
