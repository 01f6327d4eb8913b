// Package api holds the error taxonomy shared by every backend client and
// the helpers that turn raw HTTP exchanges into it.
//
//	errors.Is(err, api.ErrNetwork)    transport failure or any non-2xx
//	errors.Is(err, api.ErrAuth)       401 / 403
//	errors.Is(err, api.ErrNotFound)   404 (also ErrNetwork)
//	errors.Is(err, api.ErrValidation) rejected before any call was made
package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNetwork    = errors.New("network error")
	ErrAuth       = errors.New("insufficient permission")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// Error carries the failing operation and, when there was a response, its
// status and body.
type Error struct {
	Kind   error
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if errors.Is(e.Kind, ErrNotFound) || errors.Is(e.Kind, ErrAuth) {
		errs = append(errs, ErrNetwork)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Validation builds an ErrValidation error for op.
func Validation(op string, err error) error {
	return &Error{Kind: ErrValidation, Op: op, Err: err}
}

// KindForStatus maps an HTTP status to a sentinel.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrNetwork
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
