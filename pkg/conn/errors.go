package conn

import "fmt"

// PrepareError wraps a driver failure while compiling a statement.
type PrepareError struct {
	SQL string
	Err error
}

func (e *PrepareError) Error() string {
	return fmt.Sprintf("failed to prepare statement: %v", e.Err)
}

func (e *PrepareError) Unwrap() error { return e.Err }

// BindError reports a parameter that could not be staged or a placeholder
// executed without a staged value.
type BindError struct {
	Name   string
	Reason string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind parameter %q: %s", e.Name, e.Reason)
}

// ExecError wraps a driver failure during execution, carrying the
// engine-reported error code and message when the driver exposes them.
type ExecError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExecError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("query execution failed (error %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
