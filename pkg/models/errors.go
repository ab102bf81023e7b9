package models

import (
	"errors"
	"fmt"
)

// Code is the fixed error taxonomy every entry point maps its failures to.
type Code string

const (
	CodeUnauthorized     Code = "Unauthorized"
	CodeNotFound         Code = "NotFound"
	CodeInvalidState     Code = "InvalidState"
	CodeUnsupportedToken Code = "UnsupportedToken"
	CodeInvalidParty     Code = "InvalidParty"
	CodeTransferFailed   Code = "TransferFailed"
	CodeInvalidInput     Code = "InvalidInput"
	CodeInternal         Code = "Internal"
)

// Error is a tagged failure outcome.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so callers can test against
// the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrUnauthorized     = &Error{Code: CodeUnauthorized}
	ErrNotFound         = &Error{Code: CodeNotFound}
	ErrInvalidState     = &Error{Code: CodeInvalidState}
	ErrUnsupportedToken = &Error{Code: CodeUnsupportedToken}
	ErrInvalidParty     = &Error{Code: CodeInvalidParty}
	ErrTransferFailed   = &Error{Code: CodeTransferFailed}
	ErrInvalidInput     = &Error{Code: CodeInvalidInput}
	ErrInternal         = &Error{Code: CodeInternal}
)

// Errorf builds a tagged error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with code. A nil err yields nil.
func Wrap(code Code, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the taxonomy code carried by err. Untagged errors are
// reported as Internal and nil as the empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Code
	}
	return CodeInternal
}
