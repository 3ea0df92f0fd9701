// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors returned by this module.
type ErrorKind uint8

const (
	// KindOther is an I/O failure, for example a socket bind or send error.
	KindOther ErrorKind = iota
	// KindInvalidInput is a malformed span context, a malformed carrier value,
	// or a failure to serialize a batch.
	KindInvalidInput
)

// String returns the name of k.
func (k ErrorKind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindInvalidInput:
		return "invalid input"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error is an error with an attached [ErrorKind].
//
// Use errors.Is with [ErrInvalidInput] or [ErrOther] to test the kind of an
// error returned from this module.
type Error struct {
	Kind ErrorKind
	// Op is the operation that failed (e.g. "parse trace id").
	Op  string
	Err error
}

var (
	// ErrInvalidInput matches any error of kind KindInvalidInput.
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	// ErrOther matches any error of kind KindOther.
	ErrOther = &Error{Kind: KindOther}
)

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a kind sentinel (an *Error with no Op and no
// Err) of the same kind as e.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidInput returns a KindInvalidInput error for op caused by err.
func InvalidInput(op string, err error) error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: err}
}

// Other returns a KindOther error for op caused by err.
func Other(op string, err error) error {
	return &Error{Kind: KindOther, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that do
// not carry a kind are reported as KindOther.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
