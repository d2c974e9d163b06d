package pool

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes pool errors.
type ErrorCode string

const (
	// ErrCodeArityMismatch indicates an application was constructed with an
	// argument count differing from its symbol's arity.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeIndexOutOfRange indicates argument access beyond a term's bounds.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeRootProviderFailed indicates a root provider's mark callback
	// failed, aborting the collection cycle.
	ErrCodeRootProviderFailed ErrorCode = "ROOT_PROVIDER_FAILED"

	// ErrCodeParse indicates the term text could not be parsed.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeSessionClosed indicates an operation on a closed session.
	ErrCodeSessionClosed ErrorCode = "SESSION_CLOSED"
)

// Error is a structured pool error with a stable code and diagnostic fields.
//
// ARITY_MISMATCH and INDEX_OUT_OF_RANGE are recoverable and reported
// synchronously to the caller of the offending operation. A
// ROOT_PROVIDER_FAILED error aborts the collection cycle it occurred in;
// the pool is left unchanged and the cycle may be retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Symbol names the function symbol involved, if any.
	Symbol string

	// Index is the offending argument index (INDEX_OUT_OF_RANGE).
	Index int

	// Pos is the byte offset of a parse error in the input text.
	Pos int

	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Symbol != "":
		return fmt.Sprintf("%s: %s (symbol=%s)", e.Code, e.Message, e.Symbol)
	case e.Code == ErrCodeParse:
		return fmt.Sprintf("%s: %s (offset=%d)", e.Code, e.Message, e.Pos)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a pool Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == code
}

func arityMismatch(name string, arity, got int) *Error {
	return &Error{
		Code:    ErrCodeArityMismatch,
		Message: fmt.Sprintf("symbol has arity %d, got %d arguments", arity, got),
		Symbol:  name,
	}
}

func indexOutOfRange(index, bound int) *Error {
	return &Error{
		Code:    ErrCodeIndexOutOfRange,
		Message: fmt.Sprintf("argument index %d out of range [0,%d)", index, bound),
		Index:   index,
	}
}

func sessionClosed() *Error {
	return &Error{
		Code:    ErrCodeSessionClosed,
		Message: "session is closed",
	}
}
