package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an HTTP-facing failure. Path names the offending input fields, when known.
type Error struct {
	Status int
	Code   string
	Err    error
	Path   []string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// WithPath returns a copy of e carrying the given field path(s).
func (e *Error) WithPath(path ...string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Path = append([]string(nil), path...)
	return &cp
}

func BadRequest(code string, err error, path ...string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Err: err, Path: path}
}

func NotFound(code string, err error) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Err: err}
}

func Forbidden(code string, err error) *Error {
	return &Error{Status: http.StatusForbidden, Code: code, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var out *Error
	if errors.As(err, &out) && out != nil {
		return out, true
	}
	return nil, false
}
