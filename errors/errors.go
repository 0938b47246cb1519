package errors

import (
	"errors"
	"net/http"
)

var (
	NotFound            = HttpError{http.StatusNotFound, errors.New("not found")}
	BadRequest          = HttpError{http.StatusBadRequest, errors.New("bad request")}
	Unauthorized        = HttpError{http.StatusUnauthorized, errors.New("unauthorized")}
	Forbidden           = HttpError{http.StatusForbidden, errors.New("forbidden")}
	Conflict            = HttpError{http.StatusConflict, errors.New("conflict")}
	ConstraintViolation = HttpError{http.StatusUnprocessableEntity, errors.New("constraint violation")}
	TooManyRequests     = HttpError{http.StatusTooManyRequests, errors.New("too many requests")}
	BadGateway          = HttpError{http.StatusBadGateway, errors.New("bad gateway")}
	InternalServerError = HttpError{http.StatusInternalServerError, errors.New("internal server error")}
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

// WithMessage returns a copy of the error carrying a user facing message
// while keeping its status code.
func (h HttpError) WithMessage(message string) HttpError {
	return HttpError{Code: h.Code, Err: errors.New(message)}
}
