package engine

import (
	"regexp"
	"strings"
)

// commitRule is one category of statements that force MySQL to implicitly
// commit any open transaction.
type commitRule struct {
	category string
	pattern  *regexp.Regexp
}

// implicitCommitRules mirrors the database manual's list of statements that
// cause an implicit commit. Ordering matters only for the reported
// category; the first matching rule short-circuits.
var implicitCommitRules = []commitRule{
	{
		category: "data definition",
		pattern:  regexp.MustCompile(`(?i)^\s*(ALTER|CREATE|DROP|RENAME|TRUNCATE)\b`),
	},
	{
		category: "privilege and user management",
		pattern:  regexp.MustCompile(`(?i)^\s*(GRANT|REVOKE|SET\s+PASSWORD)\b`),
	},
	{
		category: "transaction control and locking",
		pattern:  regexp.MustCompile(`(?i)^\s*(BEGIN|START\s+TRANSACTION|LOCK\s+TABLES|UNLOCK\s+TABLES|SET\s+AUTOCOMMIT)\b`),
	},
	{
		category: "bulk data load",
		pattern:  regexp.MustCompile(`(?i)^\s*LOAD\s+DATA\b`),
	},
	{
		category: "administration",
		pattern:  regexp.MustCompile(`(?i)^\s*(ANALYZE\s+TABLE|CACHE\s+INDEX|CHECK\s+TABLE|FLUSH|LOAD\s+INDEX\s+INTO\s+CACHE|OPTIMIZE\s+TABLE|REPAIR\s+TABLE|RESET)\b`),
	},
	{
		category: "replication control",
		pattern:  regexp.MustCompile(`(?i)^\s*(START\s+(REPLICA|SLAVE)|STOP\s+(REPLICA|SLAVE)|CHANGE\s+(MASTER\s+TO|REPLICATION))\b`),
	},
}

// CommitMatch identifies the sub-statement and category that would force an
// implicit commit.
type CommitMatch struct {
	Category  string
	Statement string
}

// DetectImplicitCommit screens statement text against the implicit-commit
// ruleset. The text is split on ";" and each sub-statement is tested with
// case-insensitive patterns anchored at its start. The first match is
// returned; nil means the statement is safe to run inside a transaction.
func DetectImplicitCommit(sqlText string) *CommitMatch {
	for _, sub := range strings.Split(sqlText, ";") {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		for _, rule := range implicitCommitRules {
			if rule.pattern.MatchString(sub) {
				return &CommitMatch{Category: rule.category, Statement: sub}
			}
		}
	}
	return nil
}
