package engine

import "fmt"

// TransactionInProgressError reports a Begin while a transaction is active.
type TransactionInProgressError struct{}

func (e *TransactionInProgressError) Error() string {
	return "a transaction is already in progress"
}

// TransactionNotInProgressError reports a Commit or Rollback while idle.
type TransactionNotInProgressError struct {
	Op string
}

func (e *TransactionNotInProgressError) Error() string {
	return fmt.Sprintf("cannot %s: no transaction in progress", e.Op)
}

// TransactionBeginError wraps a driver failure opening a transaction.
type TransactionBeginError struct {
	Err error
}

func (e *TransactionBeginError) Error() string {
	return fmt.Sprintf("failed to begin transaction: %v", e.Err)
}

func (e *TransactionBeginError) Unwrap() error { return e.Err }

// TransactionCommitError wraps a driver failure committing a transaction.
type TransactionCommitError struct {
	Err error
}

func (e *TransactionCommitError) Error() string {
	return fmt.Sprintf("failed to commit transaction: %v", e.Err)
}

func (e *TransactionCommitError) Unwrap() error { return e.Err }

// TransactionRollbackError wraps a driver failure rolling back.
type TransactionRollbackError struct {
	Err error
}

func (e *TransactionRollbackError) Error() string {
	return fmt.Sprintf("failed to rollback transaction: %v", e.Err)
}

func (e *TransactionRollbackError) Unwrap() error { return e.Err }

// ImplicitCommitError reports a batch statement that would force an
// implicit commit while implicit commits are not allowed. The batch stops
// before the statement executes; the engine does not silently give up
// transactional guarantees.
type ImplicitCommitError struct {
	Category  string
	Statement string
}

func (e *ImplicitCommitError) Error() string {
	return fmt.Sprintf("statement would implicitly commit the transaction (%s): %s", e.Category, e.Statement)
}
