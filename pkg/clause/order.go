package clause

import (
	"fmt"
	"strings"

	"github.com/sqlward/sqlward/pkg/schema"
)

// Order is one ORDER BY entry. Direction is normalized to ASC or DESC;
// anything unrecognized sorts ascending.
type Order struct {
	Column    string
	Direction string
}

// OrderBy builds an ORDER BY fragment. Column names are validated against
// the schema; directions carry no user data and are normalized, never
// embedded verbatim. Empty input yields empty text.
func OrderBy(sch Schema, table string, orders []Order) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		column, err := schema.ValidateIdentifier(o.Column)
		if err != nil {
			return "", err
		}
		if !sch.IsValidColumn(table, column) {
			return "", &schema.InvalidColumnError{Table: table, Column: column}
		}
		direction := "ASC"
		if strings.EqualFold(o.Direction, "DESC") {
			direction = "DESC"
		}
		parts = append(parts, fmt.Sprintf("`%s` %s", column, direction))
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// Limit renders the LIMIT clause: "LIMIT offset, count" when both are
// positive, "LIMIT count" when only the count is, empty text otherwise.
// Offsets and counts are integers supplied by code, not user strings, so
// they are rendered directly.
func Limit(offset, count int) string {
	switch {
	case count > 0 && offset > 0:
		return fmt.Sprintf("LIMIT %d, %d", offset, count)
	case count > 0:
		return fmt.Sprintf("LIMIT %d", count)
	default:
		return ""
	}
}
