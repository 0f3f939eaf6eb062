package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a failed catalog write. Transport layers map codes to
// statuses; they never inspect driver errors directly.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error carries a Code through any amount of fmt.Errorf wrapping. Fields names
// the offending input fields using their wire names.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
	Fields  []string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Op != "" && e.Message != "" {
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if b.Len() == 0 {
		return string(e.Code)
	}
	fmt.Fprintf(&b, " (%s)", e.Code)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// NewFieldError is NewError for input faults that can be pinned to fields.
func NewFieldError(code ErrorCode, op, message string, fields ...string) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Fields: fields}
}

// Wrap tags err with code. The message is err's text, so callers that show
// messages to users must check Cause first.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func asError(err error) *Error {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr
	}
	return nil
}

// CodeOf returns the outermost code in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if aggErr := asError(err); aggErr != nil {
		return aggErr.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// FieldsOf returns the first non-empty Fields found walking inward.
func FieldsOf(err error) []string {
	for aggErr := asError(err); aggErr != nil; aggErr = asError(aggErr.Cause) {
		if len(aggErr.Fields) > 0 {
			return aggErr.Fields
		}
	}
	return nil
}
