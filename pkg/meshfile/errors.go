package meshfile

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClass is the error taxonomy from spec.md §7.
type ErrClass int

const (
	// ClassUnderlying passes through whatever class the I/O primitive
	// itself reported (permission, no-such-file, device error, ...).
	ClassUnderlying ErrClass = iota
	// ClassIO covers malformed headers, missing pad newlines, size
	// mismatches, and other format-contract violations.
	ClassIO
	// ClassCountError marks a partial read or write at the I/O layer.
	ClassCountError
	// ClassArg marks a caller error such as formatting a nil error.
	ClassArg
)

func (c ErrClass) String() string {
	switch c {
	case ClassIO:
		return "IO"
	case ClassCountError:
		return "COUNT_ERROR"
	case ClassArg:
		return "ARG"
	default:
		return "UNDERLYING"
	}
}

// Error is the concrete error type returned across this module's exposed
// surface. Rank is -1 when the failure was observed identically on every
// rank (the common case, since rank-0 errors are always broadcast before
// any rank acts on them).
type Error struct {
	Class ErrClass
	Rank  int
	cause error
}

func newError(class ErrClass, rank int, cause error) *Error {
	return &Error{Class: class, Rank: rank, cause: cause}
}

func (e *Error) Error() string {
	if e.Rank >= 0 {
		return fmt.Sprintf("meshfile: [%s] rank %d: %s", e.Class, e.Rank, e.cause)
	}
	return fmt.Sprintf("meshfile: [%s] %s", e.Class, e.cause)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// IOErrorf builds a ClassIO error, the one callers reach for most often
// when rejecting a malformed header (spec.md §4.B "Parsing rejects with an
// I/O error if...").
func IOErrorf(format string, args ...interface{}) *Error {
	return newError(ClassIO, -1, errors.Errorf(format, args...))
}

// CountError builds a ClassCountError error for a short read or write.
func CountError(wanted, got int) *Error {
	return newError(ClassCountError, -1, errors.Errorf("expected %d bytes, got %d", wanted, got))
}

// Wrap classifies an underlying I/O error (permission, ENOENT, etc.) that
// this module did not itself detect, preserving it verbatim per spec.md §7.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*Error); ok {
		return me
	}
	return newError(ClassUnderlying, -1, errors.WithStack(err))
}

// FormatError is the "error-string formatting" operation from spec.md §6.
// The source API took a caller-supplied buffer and signalled ClassArg when
// it was null; the idiomatic Go equivalent is a nil check on the error
// itself, since there is no buffer to hand in.
func FormatError(err error) (string, error) {
	if err == nil {
		return "", newError(ClassArg, -1, errors.New("FormatError: err is nil"))
	}
	return err.Error(), nil
}
