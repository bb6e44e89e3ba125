// Package nfa compiles ECMAScript regular expressions into bytecode for a
// breadth-first Thompson NFA and runs it in time linear in the input.
//
// Compilation is gated by CanBeHandled. Patterns that pass are lowered
// into a Program whose threads are simulated in priority order, which
// reproduces the leftmost, greedy-first results of a backtracking engine
// without ever backtracking.
package nfa

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported indicates a pattern the breadth-first engine cannot
	// run. Callers route such patterns to a backtracking engine.
	ErrUnsupported = errors.New("pattern not supported by linear engine")

	// ErrInterrupted indicates a search was aborted by its checkpoint.
	// The search may be retried from the same start index.
	ErrInterrupted = errors.New("search interrupted")

	// ErrResourceExhausted indicates a search was aborted because a stack
	// or memory limit was reached. It is not retryable.
	ErrResourceExhausted = errors.New("search resources exhausted")
)

// CompileError wraps compilation errors with additional context
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("linear compilation failed for pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("linear compilation failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a search that failed with err may succeed
// when run again from the same start index.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInterrupted) && !errors.Is(err, ErrResourceExhausted)
}
