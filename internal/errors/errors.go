// Package errors holds the four error classes every store, use case and handler
// agrees on. Domain packages wrap a class sentinel with their own message and
// callers classify with Is or Code.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the addressed name or version is absent from the queried store.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a creation collided with an existing (possibly deleted) entity.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIllegalState indicates the operation is not allowed in the current lifecycle state,
	// e.g. purging an entity whose recovery level is not purgeable.
	ErrIllegalState = errors.New("illegal state")
)

// CodeInternal is the code of errors outside the four classes.
const CodeInternal = "internal_error"

var classes = []struct {
	sentinel error
	code     string
}{
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
	{ErrInvalidInput, "invalid_input"},
	{ErrIllegalState, "illegal_state"},
}

// Classify returns the class sentinel err wraps, nil when it wraps none.
func Classify(err error) error {
	for _, class := range classes {
		if errors.Is(err, class.sentinel) {
			return class.sentinel
		}
	}
	return nil
}

// Code returns the snake_case code of err's class, CodeInternal when err has no class.
func Code(err error) string {
	for _, class := range classes {
		if errors.Is(err, class.sentinel) {
			return class.code
		}
	}
	return CodeInternal
}

// Wrap prefixes err with message, keeping it in the chain. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap but formats the message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
