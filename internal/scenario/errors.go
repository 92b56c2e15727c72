package scenario

import (
	"errors"
	"fmt"
)

// CompileError reports a scenario that cannot be turned into predicates.
type CompileError struct {
	Scenario string

	// Field is the scenario key at fault, empty for whole-scenario errors.
	Field string
	Err   error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("scenario %s: %s: %v", e.Scenario, e.Field, e.Err)
	}
	return fmt.Sprintf("scenario %s: %v", e.Scenario, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// EvalError reports an expression that failed at evaluation time.
type EvalError struct {
	Expression string
	Err        error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %q: %v", e.Expression, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// ExpectationError reports generated paths that do not meet Expect.
type ExpectationError struct {
	Scenario string
	Message  string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("scenario %s: %s", e.Scenario, e.Message)
}

// IsCompileError returns true if err wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// IsExpectationError returns true if err wraps an *ExpectationError.
func IsExpectationError(err error) bool {
	var ee *ExpectationError
	return errors.As(err, &ee)
}

// recoverEval converts an *EvalError panic into an error.
func recoverEval(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*EvalError); ok {
		*errp = e
		return
	}
	panic(r)
}
