package router

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrInternalCode           = "INTERNAL_ERROR"
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrNotFoundCode           = "NOT_FOUND"
	ErrRequestTimeoutCode     = "REQUEST_TIMEOUT"
	ErrTooManyRequestsCode    = "TOO_MANY_REQUESTS"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
)

// RequestError represents errors that can occur during request handling
type RequestError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Reason
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError
func NewRequestError(statusCode int, reason string, err error) *RequestError {
	return &RequestError{
		StatusCode: statusCode,
		Reason:     reason,
		Err:        err,
	}
}

// BadRequest builds a 400 whose detail is reason.
func BadRequest(reason string, err error) *RequestError {
	return NewRequestError(http.StatusBadRequest, reason, err)
}

// Internal builds a 500 whose detail is "<prefix>: <cause>".
func Internal(prefix string, err error) *RequestError {
	return NewRequestError(http.StatusInternalServerError, fmt.Sprintf("%s: %v", prefix, err), err)
}

// IsRequestError checks if the given error is a RequestError
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// Code returns the problem code for the status.
func (e *RequestError) Code() string {
	return codeForStatus(e.StatusCode)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequestCode
	case http.StatusNotFound:
		return ErrNotFoundCode
	case http.StatusRequestTimeout:
		return ErrRequestTimeoutCode
	case http.StatusTooManyRequests:
		return ErrTooManyRequestsCode
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailableCode
	default:
		return ErrInternalCode
	}
}
