// Package schema validates SQL identifiers and caches table metadata from
// the database's information catalog.
//
// Every table or column name that ends up embedded in SQL text must pass
// through ValidateIdentifier first, and then through the Cache lookup
// predicates. Values never take this path; they are always bound as
// parameters. This split is what keeps identifier-based SQL injection out
// of the generated statements.
package schema

import (
	"regexp"
	"strings"
)

// identifierPattern accepts word characters and whitespace only. Quoting
// characters, semicolons and operators are all rejected, which rules out
// every known identifier-injection vector before SQL text is assembled.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_\s]+$`)

// ValidateIdentifier checks that s is a syntactically safe SQL identifier
// and returns it with surrounding whitespace trimmed. It returns a
// *SyntaxError for the empty string or any string containing a character
// outside [A-Za-z0-9_] and whitespace.
func ValidateIdentifier(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &SyntaxError{Input: s, Reason: "identifier is empty"}
	}
	if !identifierPattern.MatchString(trimmed) {
		return "", &SyntaxError{Input: s, Reason: "identifier contains characters outside [A-Za-z0-9_] and whitespace"}
	}
	return trimmed, nil
}
