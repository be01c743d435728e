// Package clause builds single-table SQL clause fragments: VALUES, SET,
// WHERE and ORDER BY/LIMIT.
//
// Each generator produces a Fragment, a pair of SQL text and a disjoint
// named-parameter map. Column names are validated against the schema
// snapshot before they are placed into SQL text; values only ever appear as
// :name placeholders. Fragments are transient: created, assembled into one
// statement and discarded within a single call.
package clause

import "sort"

// Fragment is an SQL text snippet plus the parameters it references.
// Parameter names are unique within one fragment and values are scalar;
// arrays are rejected at bind time, not expanded.
type Fragment struct {
	SQL    string
	Params map[string]any
}

// Schema answers the column-validity questions the generators ask. It is
// implemented by *schema.Cache; tests substitute a fixture.
type Schema interface {
	IsValidColumn(table, column string) bool
	IsGeneratedColumn(table, column string) bool
}

// sortedKeys returns the map's keys in sorted order so generated SQL is
// deterministic regardless of map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
