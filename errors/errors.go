package errors

import (
	"errors"
	"net/http"
)

var (
	NotFound     = HttpError{http.StatusNotFound, errors.New("not found")}
	BadRequest   = HttpError{http.StatusBadRequest, errors.New("bad request")}
	Unauthorized = HttpError{http.StatusUnauthorized, errors.New("unauthorized")}
	Transport    = HttpError{http.StatusBadGateway, errors.New("request failed")}

	// InvalidInput is raised before any network call when a local payload or argument is malformed
	InvalidInput = HttpError{http.StatusUnprocessableEntity, errors.New("invalid input")}
	// InProgress is raised when the same operation is already in flight for a subject
	InProgress = HttpError{http.StatusConflict, errors.New("operation in progress")}
)

type HttpError struct {
	Code int
	Err  error
}

func (h HttpError) Unwrap() error {
	return h.Err
}

func (h HttpError) Error() string {
	return h.Err.Error()
}

// FromStatusCode returns the sentinel for a server status code
func FromStatusCode(code int) HttpError {
	switch code {
	case http.StatusBadRequest:
		return BadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return Unauthorized
	case http.StatusNotFound:
		return NotFound
	default:
		return Transport
	}
}

// Message returns the operator facing message for a failed action
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, InvalidInput):
		return "The supplied data is invalid: " + err.Error()
	case errors.Is(err, Unauthorized):
		return "The server rejected the admin token."
	case errors.Is(err, NotFound):
		return "The requested patient was not found."
	case errors.Is(err, InProgress):
		return "The operation is already running."
	case errors.Is(err, BadRequest):
		return "The server rejected the request: " + err.Error()
	default:
		return "The request failed. Please try again."
	}
}
