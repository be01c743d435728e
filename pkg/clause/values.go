package clause

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlward/sqlward/pkg/schema"
)

// InsertClause is the column list, VALUES groups and parameter map of an
// INSERT statement body.
type InsertClause struct {
	SQL    string
	Params map[string]any
}

// Values builds the `(cols...) VALUES (...)` body for one or more rows.
//
// All rows must share an identical column set, order-independent; a row
// that deviates is a *MismatchedColumnsError. Generated columns are dropped
// from the value list. With more than one row, every parameter name gets a
// per-row numeric suffix (col_0, col_1, ...) so bindings stay unique across
// the batch; a single row binds plain column names.
//
// When upsert is true an ON DUPLICATE KEY UPDATE clause is appended mapping
// every non-primary-key column to its new-row value. Empty input yields an
// empty clause.
func Values(sch Schema, table string, rows []map[string]any, upsert bool, primaryKey string) (*InsertClause, error) {
	out := &InsertClause{Params: make(map[string]any)}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return out, nil
	}

	reference := sortedKeys(rows[0])
	for i, row := range rows[1:] {
		if !sameColumns(reference, row) {
			return nil, &MismatchedColumnsError{Row: i + 1}
		}
	}

	// Validate once against the reference set; all rows share it. A column
	// keeps both spellings: row maps are keyed by the raw key, while SQL and
	// parameter names use the trimmed identifier.
	type columnRef struct {
		raw  string
		name string
	}
	var columns []columnRef
	for _, col := range reference {
		name, err := schema.ValidateIdentifier(col)
		if err != nil {
			return nil, err
		}
		if !sch.IsValidColumn(table, name) {
			return nil, &schema.InvalidColumnError{Table: table, Column: name}
		}
		if sch.IsGeneratedColumn(table, name) {
			continue
		}
		columns = append(columns, columnRef{raw: col, name: name})
	}
	if len(columns) == 0 {
		return out, nil
	}

	var groups []string
	for i, row := range rows {
		placeholders := make([]string, len(columns))
		for j, col := range columns {
			name := col.name
			if len(rows) > 1 {
				name = fmt.Sprintf("%s_%d", col.name, i)
			}
			placeholders[j] = ":" + name
			out.Params[name] = row[col.raw]
		}
		groups = append(groups, "("+strings.Join(placeholders, ", ")+")")
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = "`" + col.name + "`"
	}
	out.SQL = "(" + strings.Join(quoted, ", ") + ") VALUES " + strings.Join(groups, ", ")

	if upsert {
		var updates []string
		for _, col := range columns {
			if col.name == primaryKey {
				continue
			}
			updates = append(updates, fmt.Sprintf("`%s` = VALUES(`%s`)", col.name, col.name))
		}
		if len(updates) > 0 {
			out.SQL += " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
		}
	}
	return out, nil
}

// sameColumns reports whether row has exactly the reference column set.
func sameColumns(reference []string, row map[string]any) bool {
	if len(row) != len(reference) {
		return false
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if k != reference[i] {
			return false
		}
	}
	return true
}
