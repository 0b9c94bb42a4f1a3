package types

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigDecode is returned when a boundary configuration buffer cannot be parsed.
	ErrConfigDecode = errors.New("config decode error")
	// ErrTransactionDecode is returned when a boundary transaction payload cannot be parsed.
	ErrTransactionDecode = errors.New("transaction decode error")
	// ErrKeyParse is returned for malformed secret key material. It never carries the input.
	ErrKeyParse = errors.New("secret key error")
	// ErrConnection is returned when the store or the full node cannot be opened.
	ErrConnection = errors.New("connection error")
	// ErrSubmission is returned when the full node rejects a transaction or the transport fails.
	ErrSubmission = errors.New("submit failed")
	// ErrSerialization is returned when a message cannot be converted for relay delivery.
	ErrSerialization = errors.New("serialization error")
	// ErrChannelClosed is returned when the broadcast producer of a relay is gone.
	ErrChannelClosed = errors.New("channel closed")
)

// Error codes carried by Error.
const (
	CodeInternalServerError = 500
	CodeBadRequest          = 400
)

// Error is a structured error with a code, a human readable message and the
// underlying cause.
type Error struct {
	Code    int
	Message string
	Cause   error
}

// NewSubmitError wraps cause into a "submit failed" error.
func NewSubmitError(cause error) *Error {
	return &Error{
		Code:    CodeInternalServerError,
		Message: "Submit transaction failed",
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes every submit error match ErrSubmission.
func (e *Error) Is(target error) bool {
	return target == ErrSubmission
}

// RootCause returns the innermost error of the wrap chain.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return err
}
