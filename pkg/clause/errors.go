package clause

import "fmt"

// InvalidOperatorError reports a where-condition key whose operator token is
// not in the canonical comparison set.
type InvalidOperatorError struct {
	Key      string
	Operator string
}

func (e *InvalidOperatorError) Error() string {
	return fmt.Sprintf("invalid where operator %q in condition %q", e.Operator, e.Key)
}

// MismatchedColumnsError reports a multi-row insert whose rows do not all
// share the same column set.
type MismatchedColumnsError struct {
	Row int
}

func (e *MismatchedColumnsError) Error() string {
	return fmt.Sprintf("row %d does not share the column set of row 0", e.Row)
}

// ColumnConflictError reports a primary key that appears both in the update
// map and explicitly in the where conditions.
type ColumnConflictError struct {
	Column string
}

func (e *ColumnConflictError) Error() string {
	return fmt.Sprintf("column %q appears in both the update set and the where conditions", e.Column)
}

// EmptyParamsError reports a clause that requires at least one column=>value
// pair but received none.
type EmptyParamsError struct {
	Clause string
}

func (e *EmptyParamsError) Error() string {
	return fmt.Sprintf("%s clause requires at least one column", e.Clause)
}
