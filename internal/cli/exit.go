package cli

import (
	"errors"
	"fmt"

	"github.com/CoolCat467/idletypecheck/internal/session"
)

const (
	ExitCodeSuccess      = 0
	ExitCodeNotFound     = 1
	ExitCodeCheckFailed  = 2
	ExitCodeInvalidUsage = 3
	ExitCodeAborted      = 4
	// ExitCodeInternal covers errors no handler classified.
	ExitCodeInternal = 5
)

// ExitError carries a process exit code while preserving wrapped error context.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the wrapped error message or a fallback message with exit code.
func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("process failed with exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped root error.
func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExitCode returns the process exit code for an error returned by the root
// command.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCodeInternal
}

// newExitError builds an ExitError returned from CLI execution paths.
func newExitError(code int, err error) error {
	return &ExitError{
		Code: code,
		Err:  err,
	}
}

// classify maps handler errors to exit codes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, session.ErrNotSaved) {
		return newExitError(ExitCodeAborted, fmt.Errorf("%w: save it or pass --save", err))
	}
	return err
}
