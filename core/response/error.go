package response

import (
	"net/http"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// Error returns a response that propagates the given error unchanged.
// The router's error handler decides how it renders, so handlers can
// surface typed errors without writing anything themselves.
func Error(err error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}

// HTTPError is a structured error response that implements the error interface.
type HTTPError struct {
	Status  int            `json:"-"`                 // HTTP status code (not in JSON)
	Code    string         `json:"code"`              // Machine-readable error code
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Optional context
}

// NewHTTPError creates an HTTPError with a custom message and 500 status.
func NewHTTPError(message string) HTTPError {
	return HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_server_error",
		Message: message,
	}
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error.
// This lets HTTPError drive the router's status mapping.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

// WithError returns a copy of the error with an error cause.
func (e HTTPError) WithError(err error) HTTPError {
	if e.Details == nil {
		e.Details = map[string]any{"cause": err.Error()}
	} else {
		e.Details["cause"] = err.Error()
	}
	return e
}

// Predefined HTTP errors using http.StatusText for default messages.
var (
	// 4xx Client Errors
	ErrBadRequest = HTTPError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: http.StatusText(http.StatusBadRequest),
	}

	ErrUnauthorized = HTTPError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: http.StatusText(http.StatusUnauthorized),
	}

	ErrForbidden = HTTPError{
		Status:  http.StatusForbidden,
		Code:    "forbidden",
		Message: http.StatusText(http.StatusForbidden),
	}

	ErrNotFound = HTTPError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: http.StatusText(http.StatusNotFound),
	}

	ErrMethodNotAllowed = HTTPError{
		Status:  http.StatusMethodNotAllowed,
		Code:    "method_not_allowed",
		Message: http.StatusText(http.StatusMethodNotAllowed),
	}

	ErrRequestTimeout = HTTPError{
		Status:  http.StatusRequestTimeout,
		Code:    "request_timeout",
		Message: http.StatusText(http.StatusRequestTimeout),
	}

	ErrConflict = HTTPError{
		Status:  http.StatusConflict,
		Code:    "conflict",
		Message: http.StatusText(http.StatusConflict),
	}

	ErrRequestEntityTooLarge = HTTPError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "request_entity_too_large",
		Message: http.StatusText(http.StatusRequestEntityTooLarge),
	}

	ErrUnsupportedMediaType = HTTPError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "unsupported_media_type",
		Message: http.StatusText(http.StatusUnsupportedMediaType),
	}

	ErrUnprocessableEntity = HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "unprocessable_entity",
		Message: http.StatusText(http.StatusUnprocessableEntity),
	}

	ErrTooManyRequests = HTTPError{
		Status:  http.StatusTooManyRequests,
		Code:    "too_many_requests",
		Message: http.StatusText(http.StatusTooManyRequests),
	}

	// 5xx Server Errors
	ErrInternalServerError = HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_server_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}

	ErrNotImplemented = HTTPError{
		Status:  http.StatusNotImplemented,
		Code:    "not_implemented",
		Message: http.StatusText(http.StatusNotImplemented),
	}

	ErrBadGateway = HTTPError{
		Status:  http.StatusBadGateway,
		Code:    "bad_gateway",
		Message: http.StatusText(http.StatusBadGateway),
	}

	ErrServiceUnavailable = HTTPError{
		Status:  http.StatusServiceUnavailable,
		Code:    "service_unavailable",
		Message: http.StatusText(http.StatusServiceUnavailable),
	}

	ErrGatewayTimeout = HTTPError{
		Status:  http.StatusGatewayTimeout,
		Code:    "gateway_timeout",
		Message: http.StatusText(http.StatusGatewayTimeout),
	}
)

// httpErrorsByStatus maps status codes to their predefined errors for
// converting arbitrary errors into structured responses.
var httpErrorsByStatus = map[int]HTTPError{
	http.StatusBadRequest:            ErrBadRequest,
	http.StatusUnauthorized:          ErrUnauthorized,
	http.StatusForbidden:             ErrForbidden,
	http.StatusNotFound:              ErrNotFound,
	http.StatusMethodNotAllowed:      ErrMethodNotAllowed,
	http.StatusRequestTimeout:        ErrRequestTimeout,
	http.StatusConflict:              ErrConflict,
	http.StatusRequestEntityTooLarge: ErrRequestEntityTooLarge,
	http.StatusUnsupportedMediaType:  ErrUnsupportedMediaType,
	http.StatusUnprocessableEntity:   ErrUnprocessableEntity,
	http.StatusTooManyRequests:       ErrTooManyRequests,
	http.StatusInternalServerError:   ErrInternalServerError,
	http.StatusNotImplemented:        ErrNotImplemented,
	http.StatusBadGateway:            ErrBadGateway,
	http.StatusServiceUnavailable:    ErrServiceUnavailable,
	http.StatusGatewayTimeout:        ErrGatewayTimeout,
}
