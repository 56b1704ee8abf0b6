package pipeline

import "fmt"

// CompileError is returned by Compile when a FilterConfig fails
// validation. It is always a config-invalid failure, surfaced
// synchronously to the caller — it never reaches the RT worker.
type CompileError struct {
	Reason string
	Inner  error
}

func (e *CompileError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("pipeline: compile failed: %s: %v", e.Reason, e.Inner)
	}
	return fmt.Sprintf("pipeline: compile failed: %s", e.Reason)
}

func (e *CompileError) Unwrap() error { return e.Inner }

func newCompileError(reason string, inner error) *CompileError {
	return &CompileError{Reason: reason, Inner: inner}
}
