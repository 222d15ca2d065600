package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an AppError for both HTTP status mapping and
// dispatcher retry decisions.
type ErrorCode string

const (
	CodeInvalidInput   ErrorCode = "INVALID_INPUT"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// Gateway-specific kinds (dispatch pipeline, §7 of the design doc).
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeNoUpstream         ErrorCode = "NO_UPSTREAM"
	CodeUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	CodeUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	CodeStreamBrokenPre    ErrorCode = "UPSTREAM_STREAM_BROKEN_PRE"
	CodeStreamBrokenPost   ErrorCode = "UPSTREAM_STREAM_BROKEN_POST"
	CodeUnsupportedDialect ErrorCode = "UNSUPPORTED"
)

// AppError is the single error type surfaced across domain and
// infrastructure boundaries. UpstreamStatus carries the upstream HTTP
// status code when Code is CodeUpstreamError, so handlers can preserve it.
type AppError struct {
	Code           ErrorCode
	Message        string
	Err            error
	UpstreamStatus int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewAlreadyExistsError(message string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message}
}

func NewNoUpstreamError(message string) *AppError {
	return &AppError{Code: CodeNoUpstream, Message: message}
}

func NewUpstreamError(status int, body string) *AppError {
	return &AppError{
		Code:           CodeUpstreamError,
		Message:        fmt.Sprintf("code %d body: %s", status, body),
		UpstreamStatus: status,
	}
}

func NewUpstreamTimeoutError(message string) *AppError {
	return &AppError{Code: CodeUpstreamTimeout, Message: message}
}

func NewStreamBrokenPreError(cause error) *AppError {
	return &AppError{Code: CodeStreamBrokenPre, Message: "upstream connection broke before response headers", Err: cause}
}

func NewStreamBrokenPostError(cause error) *AppError {
	return &AppError{Code: CodeStreamBrokenPost, Message: "upstream stream broke after bytes were flushed to client", Err: cause}
}

func NewUnsupportedError(message string) *AppError {
	return &AppError{Code: CodeUnsupportedDialect, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message}
}

func NewInternalErrorWithCause(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: cause}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeNotFound
	}
	return false
}

func IsInvalidInput(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeInvalidInput
	}
	return false
}

// Retryable reports whether the dispatcher should try another candidate
// rather than surface this error to the caller immediately.
func Retryable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeUpstreamTimeout, CodeStreamBrokenPre, CodeServiceUnavail:
		return true
	case CodeUpstreamError:
		return appErr.UpstreamStatus >= 500
	default:
		return false
	}
}

// HTTPStatus maps an AppError's code to the status code the inbound HTTP
// surface should mirror to the client.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeInvalidInput, CodeBadRequest, CodeUnsupportedDialect:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeNoUpstream, CodeServiceUnavail:
		return http.StatusServiceUnavailable
	case CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case CodeUpstreamError:
		if appErr.UpstreamStatus != 0 {
			return appErr.UpstreamStatus
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
