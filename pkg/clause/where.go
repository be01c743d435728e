package clause

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sqlward/sqlward/pkg/schema"
)

// operators is the canonical comparison set, longest token first so that
// multi-character operators are never misread as their prefixes ("<=" must
// not match as "<" followed by a stray "=").
var operators = []string{
	"IS NOT",
	"BETWEEN",
	"LIKE",
	"<=", ">=", "<>", "!=",
	"IS", "IN",
	"<", ">", "=",
}

// ParseWhereOperator splits a condition key of the form "column" or
// "column OPERATOR" into a validated column name and a canonical operator.
// A key without an operator token defaults to "=". An operator token
// outside the canonical set is an *InvalidOperatorError.
func ParseWhereOperator(key string) (column, op string, err error) {
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return "", "", &schema.SyntaxError{Input: key, Reason: "identifier is empty"}
	}

	column, err = schema.ValidateIdentifier(fields[0])
	if err != nil {
		return "", "", err
	}
	if len(fields) == 1 {
		return column, "=", nil
	}

	token := strings.ToUpper(strings.Join(fields[1:], " "))
	for _, candidate := range operators {
		if token == candidate {
			return column, candidate, nil
		}
	}
	return "", "", &InvalidOperatorError{Key: key, Operator: strings.Join(fields[1:], " ")}
}

// Where builds a WHERE fragment from flat conditions. Condition keys carry
// an optional operator ("age >": 18); the comparand is always bound as a
// parameter. Conditions are joined by a single conjunction, AND or OR
// (case-insensitive); anything else falls back to AND.
//
// taken holds parameter names already claimed by the statement's SET clause.
// A condition whose column name collides with a taken name is renamed with a
// random suffix so WHERE and SET bindings never overlap. The suffix scheme
// is probabilistic, not structural: a fresh suffix is drawn until it neither
// collides with a taken name nor shadows a real column of the table.
func Where(sch Schema, table string, conditions map[string]any, conjunction string, taken map[string]bool) (Fragment, error) {
	frag := Fragment{Params: make(map[string]any, len(conditions))}
	if len(conditions) == 0 {
		return frag, nil
	}
	if taken == nil {
		taken = make(map[string]bool)
	}

	joiner := " AND "
	if strings.EqualFold(conjunction, "OR") {
		joiner = " OR "
	}

	var parts []string
	for _, key := range sortedKeys(conditions) {
		column, op, err := ParseWhereOperator(key)
		if err != nil {
			return Fragment{}, err
		}
		if !sch.IsValidColumn(table, column) {
			return Fragment{}, &schema.InvalidColumnError{Table: table, Column: column}
		}

		name := claimName(sch, table, column, taken)
		frag.Params[name] = conditions[key]
		parts = append(parts, fmt.Sprintf("`%s` %s :%s", column, op, name))
	}

	frag.SQL = strings.Join(parts, joiner)
	return frag, nil
}

// claimName derives a parameter name from the column, appending a random
// suffix while the candidate collides with an already-claimed name or with
// a real column of the table. Collision-free with overwhelming probability,
// not by construction.
func claimName(sch Schema, table, column string, taken map[string]bool) string {
	name := column
	for taken[name] || (name != column && sch.IsValidColumn(table, name)) {
		name = column + "_" + randomSuffix()
	}
	taken[name] = true
	return name
}

// randomSuffix returns a short random identifier fragment.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
