// Package failure carries the error taxonomy shared by every domain package.
//
// Each sentinel is an *Error with a stable upper-snake code that the transport
// layer surfaces verbatim; wrapping with %w keeps both the code and the cause.
package failure

import (
	"context"
	"errors"
	"fmt"
)

type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(code, msg string) *Error { return &Error{Code: code, Msg: msg} }

var (
	ErrNotFound     = New("NOT_FOUND", "not found")
	ErrTransient    = New("TRANSIENT", "temporary storage failure, retry the request")
	ErrInvalidInput = New("INVALID_INPUT", "invalid input")
)

// CodeOf returns the code of the first *Error in err's chain, or "INTERNAL".
func CodeOf(err error) string {
	if err == nil {
		return "OK"
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransient.Code
	}
	return "INTERNAL"
}

// Transient marks err as retryable. Nil and already-classified errors pass through.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Invalid wraps a boundary validation message as INVALID_INPUT.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }
