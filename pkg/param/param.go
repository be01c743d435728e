// Package param reconciles candidate parameter maps against the :name
// placeholders found in assembled SQL text, and infers the storage type a
// value should be bound with.
package param

import (
	"regexp"

	"github.com/sqlward/sqlward/pkg/schema"
)

// Type is the storage type a parameter value is bound with.
type Type int

const (
	// Null binds SQL NULL.
	Null Type = iota
	// Bool binds a boolean.
	Bool
	// Int binds a 64-bit integer.
	Int
	// String binds a string; floats also travel as strings so the server
	// parses them with full precision.
	String
)

// String returns the type name for logs and error messages.
func (t Type) String() string {
	switch t {
	case Null:
		return "NULL"
	case Bool:
		return "BOOL"
	case Int:
		return "INT"
	case String:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// placeholderPattern matches the :name placeholders the clause generators
// emit. A name starts with a letter or underscore.
var placeholderPattern = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// Placeholders returns the distinct placeholder names in sqlText, in order
// of first appearance.
func Placeholders(sqlText string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(sqlText, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Reconcile cross-checks candidates against the placeholders in sqlText.
//
// A candidate is included in the result only when its placeholder actually
// appears in the text and its name passes identifier validation. Candidates
// the SQL never references are dropped silently; they are available but
// unused. Placeholders left without a candidate make the statement
// unexecutable and are reported together in a *MissingError.
func Reconcile(sqlText string, candidates map[string]any) (map[string]any, error) {
	required := make(map[string]bool)
	order := Placeholders(sqlText)
	for _, name := range order {
		required[name] = true
	}

	bound := make(map[string]any, len(candidates))
	for name, value := range candidates {
		if _, err := schema.ValidateIdentifier(name); err != nil {
			continue
		}
		if !required[name] {
			continue
		}
		bound[name] = value
		delete(required, name)
	}

	if len(required) > 0 {
		missing := make([]string, 0, len(required))
		for _, name := range order {
			if required[name] {
				missing = append(missing, name)
			}
		}
		return nil, &MissingError{Names: missing}
	}
	return bound, nil
}

// TypeOf maps a scalar parameter value to its binding type: bool to Bool,
// integers to Int, floats and strings to String, nil to Null. Every other
// runtime type (slices, maps, structs) is an *InvalidValueTypeError; arrays
// in particular are an error condition for binding, not a silent expansion.
func TypeOf(name string, value any) (Type, error) {
	switch value.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int, nil
	case float32, float64, string:
		return String, nil
	default:
		return Null, &InvalidValueTypeError{Name: name, Value: value}
	}
}
