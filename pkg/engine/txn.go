package engine

import (
	"context"
	"errors"
)

// txState is the coordinator's state machine: Idle --begin--> Active
// --commit|rollback--> Idle.
type txState int

const (
	txIdle txState = iota
	txActive
)

// BatchOptions controls ExecuteBatch sequencing.
type BatchOptions struct {
	// Commit persists the batch at the end; false rolls it back, making the
	// whole batch speculative.
	Commit bool

	// RollbackOnFailure aborts and rolls back the batch on the first
	// statement failure. When false, failures are recorded per statement
	// and the batch continues.
	RollbackOnFailure bool

	// AllowImplicitCommits skips the implicit-commit screening. Leave false
	// unless the batch deliberately contains DDL or similar statements.
	AllowImplicitCommits bool
}

// StatementResult captures the outcome of one batch statement.
type StatementResult struct {
	SQL          string
	Rows         []map[string]any
	RowCount     int64
	LastInsertID string

	// ImplicitCommit is set when the server ended the transaction as a side
	// effect of this statement. A new transaction was opened for the rest
	// of the batch, but this statement can no longer be rolled back.
	ImplicitCommit bool

	// Err is the statement's failure when the batch ran with
	// RollbackOnFailure disabled.
	Err error
}

// Begin opens a transaction. It fails with *TransactionInProgressError when
// one is already active.
func (e *Engine) Begin(ctx context.Context) error {
	if e.tx == txActive {
		return &TransactionInProgressError{}
	}
	if err := e.conn.BeginTransaction(ctx); err != nil {
		return &TransactionBeginError{Err: err}
	}
	e.tx = txActive
	e.log.Debug("transaction started")
	return nil
}

// Commit persists the active transaction. It fails with
// *TransactionNotInProgressError while idle.
func (e *Engine) Commit(ctx context.Context) error {
	if e.tx != txActive {
		return &TransactionNotInProgressError{Op: "commit"}
	}
	if err := e.conn.Commit(ctx); err != nil {
		return &TransactionCommitError{Err: err}
	}
	e.tx = txIdle
	e.log.Debug("transaction committed")
	return nil
}

// Rollback discards the active transaction. It fails with
// *TransactionNotInProgressError while idle.
func (e *Engine) Rollback(ctx context.Context) error {
	if e.tx != txActive {
		return &TransactionNotInProgressError{Op: "rollback"}
	}
	if err := e.conn.Rollback(ctx); err != nil {
		return &TransactionRollbackError{Err: err}
	}
	e.tx = txIdle
	e.log.Debug("transaction rolled back")
	return nil
}

// InTransaction reports whether the coordinator holds an active transaction.
func (e *Engine) InTransaction() bool {
	return e.tx == txActive
}

// ExecuteBatch runs statements sequentially inside one transaction.
//
// Unless opts.AllowImplicitCommits is set, each statement is screened first
// and a would-be implicit commit aborts the batch with an
// *ImplicitCommitError before anything executes. If the server ends the
// transaction anyway after a successful statement, that is flagged on the
// result and a new transaction is opened immediately so the remaining
// statements still run under one; the already-executed statement is
// beyond rollback at that point. The batch commits at the end only when
// opts.Commit is set, otherwise it rolls back.
func (e *Engine) ExecuteBatch(ctx context.Context, statements []string, opts BatchOptions) ([]StatementResult, error) {
	if err := e.Begin(ctx); err != nil {
		return nil, err
	}

	var results []StatementResult
	for _, stmt := range statements {
		if !opts.AllowImplicitCommits {
			if m := DetectImplicitCommit(stmt); m != nil {
				rbErr := e.Rollback(ctx)
				return results, errors.Join(&ImplicitCommitError{Category: m.Category, Statement: m.Statement}, rbErr)
			}
		}

		res, err := e.executeIncrement(ctx, stmt)
		if err != nil {
			e.log.Error("batch statement failed", "sql", stmt, "error", err)
			if opts.RollbackOnFailure {
				rbErr := e.Rollback(ctx)
				return results, errors.Join(err, rbErr)
			}
			res.Err = err
			results = append(results, res)
			continue
		}

		if !e.conn.InTransaction(ctx) {
			// The server committed behind our back. Reopen so the rest of
			// the batch is still transactional, and say so in the result.
			res.ImplicitCommit = true
			e.log.Warn("implicit commit detected mid-batch", "sql", stmt)
			if err := e.conn.BeginTransaction(ctx); err != nil {
				results = append(results, res)
				return results, &TransactionBeginError{Err: err}
			}
		}
		results = append(results, res)
	}

	if opts.Commit {
		if err := e.Commit(ctx); err != nil {
			return results, err
		}
	} else {
		if err := e.Rollback(ctx); err != nil {
			return results, err
		}
	}
	return results, nil
}

// executeIncrement runs one raw statement: prepare, execute, capture rows
// and counters.
func (e *Engine) executeIncrement(ctx context.Context, stmt string) (StatementResult, error) {
	res := StatementResult{SQL: stmt}
	st, err := e.conn.Prepare(ctx, stmt)
	if err != nil {
		return res, err
	}
	defer func() { _ = st.Close() }()

	if err := st.Execute(ctx); err != nil {
		return res, err
	}
	rows, err := st.FetchAll()
	if err != nil {
		return res, err
	}
	res.Rows = rows
	res.RowCount = st.RowCount()
	res.LastInsertID = e.conn.LastInsertID()
	return res, nil
}
