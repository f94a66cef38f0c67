package transport

import (
	"errors"
	"fmt"
)

var (
	ErrConnClosed  = NewTpError(1001, "Connection is closed", "")
	ErrDialFailed  = NewTpError(1002, "Dial failed", "")
	ErrWriteFailed = NewTpError(1003, "Write failed", "")
)

type tpError struct {
	code    int
	msg     string
	context string
	err     error
}

func (e *tpError) Error() string {
	s := fmt.Sprintf("Error %d: %s", e.code, e.msg)
	if e.context != "" {
		s += fmt.Sprintf(" (context: %s)", e.context)
	}
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

func (e *tpError) Unwrap() error { return e.err }

// Is matches transport errors by code, so wrapped instances match their sentinel.
func (e *tpError) Is(target error) bool {
	var t *tpError
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

func (e *tpError) Code() int { return e.code }

func NewTpError(code int, message string, context string) *tpError {
	return &tpError{
		code:    code,
		msg:     message,
		context: context,
	}
}

func wrapTpError(base *tpError, context string, err error) *tpError {
	return &tpError{code: base.code, msg: base.msg, context: context, err: err}
}
