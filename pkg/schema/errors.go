package schema

import "fmt"

// SyntaxError reports an identifier that failed the syntactic whitelist
// check in ValidateIdentifier.
type SyntaxError struct {
	Input  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Input, e.Reason)
}

// InvalidTableError reports a table name that is not present in the loaded
// schema snapshot.
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}

// InvalidColumnError reports a column that is not present in the named
// table's column map.
type InvalidColumnError struct {
	Table  string
	Column string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("unknown column %q in table %q", e.Column, e.Table)
}

// LoadError wraps a failure of the underlying catalog query during Load.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load schema snapshot: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
