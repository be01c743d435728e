package clause

import (
	"fmt"
	"strings"

	"github.com/sqlward/sqlward/pkg/schema"
)

// Set builds the SET fragment of an UPDATE from column=>value pairs.
//
// Generated columns are skipped; the database computes those. When the
// table's primary key appears among the updates it is routed into the
// returned extra where-conditions instead of the SET list, since a primary
// key identifies the row rather than updating it. If the caller's where conditions
// already name the primary key explicitly, that is a *ColumnConflictError
// rather than a guess about which value wins.
func Set(sch Schema, table string, updates map[string]any, where map[string]any, primaryKey string) (Fragment, map[string]any, error) {
	if len(updates) == 0 {
		return Fragment{}, nil, &EmptyParamsError{Clause: "SET"}
	}

	frag := Fragment{Params: make(map[string]any, len(updates))}
	pkWhere := make(map[string]any)

	var parts []string
	for _, col := range sortedKeys(updates) {
		name, err := schema.ValidateIdentifier(col)
		if err != nil {
			return Fragment{}, nil, err
		}
		if !sch.IsValidColumn(table, name) {
			return Fragment{}, nil, &schema.InvalidColumnError{Table: table, Column: name}
		}
		if sch.IsGeneratedColumn(table, name) {
			continue
		}
		if name == primaryKey {
			if whereNamesColumn(where, name) {
				return Fragment{}, nil, &ColumnConflictError{Column: name}
			}
			pkWhere[name] = updates[col]
			continue
		}
		frag.Params[name] = updates[col]
		parts = append(parts, fmt.Sprintf("`%s` = :%s", name, name))
	}

	frag.SQL = strings.Join(parts, ", ")
	return frag, pkWhere, nil
}

// whereNamesColumn reports whether any where-condition key refers to the
// column, ignoring its operator suffix.
func whereNamesColumn(where map[string]any, column string) bool {
	for key := range where {
		if col, _, err := ParseWhereOperator(key); err == nil && col == column {
			return true
		}
	}
	return false
}
