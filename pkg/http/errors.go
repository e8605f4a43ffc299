package http

import (
	"fmt"
	"net/http"
)

// AppError is an error with a stable code and the HTTP status it maps to.
// Err is kept for logs and never serialized.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// WithParam attaches a machine-readable detail, e.g. the offending ticker.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusBadRequest)
}

func ConflictError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusConflict)
}

func UnprocessableError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusUnprocessableEntity)
}

func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", message, http.StatusInternalServerError)
}

// BadGatewayError reports an upstream that failed or returned garbage.
func BadGatewayError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusBadGateway)
}

// GatewayTimeoutError reports an upstream that did not answer in time.
func GatewayTimeoutError(code, message string) *AppError {
	return NewAppError(code, message, http.StatusGatewayTimeout)
}
