package param

import (
	"fmt"
	"strings"
)

// MissingError reports placeholders in the SQL text that no candidate
// parameter covered.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing parameters: %s", strings.Join(e.Names, ", "))
}

// InvalidValueTypeError reports a parameter value whose runtime type cannot
// be bound (arrays, maps, structs).
type InvalidValueTypeError struct {
	Name  string
	Value any
}

func (e *InvalidValueTypeError) Error() string {
	return fmt.Sprintf("parameter %q has unbindable type %T", e.Name, e.Value)
}
