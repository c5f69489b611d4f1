package postgres

import (
	"errors"
	"regexp"
	"strings"
)

// ErrWriteQuery is returned when postgres_query receives a statement that
// could modify data or leave the read-only transaction.
var ErrWriteQuery = errors.New("write and transaction control statements are not allowed")

// writeKeywords start statements that modify data or schema, or that would
// end or reconfigure the enclosing read-only transaction.
var writeKeywords = []string{
	"INSERT",
	"UPDATE",
	"DELETE",
	"DROP",
	"CREATE",
	"ALTER",
	"TRUNCATE",
	"GRANT",
	"REVOKE",
	"MERGE",
	"CALL",
	"EXECUTE",
	"COPY",
	"COMMIT",
	"ROLLBACK",
	"ABORT",
	"BEGIN",
	"START",
	"END",
	"SET",
	"RESET",
}

// writePattern matches a write keyword at the start of the input or of any
// statement following a semicolon, after optional comments.
var writePattern = regexp.MustCompile(
	`(?i)(?:^|;)\s*(?:--[^\n]*\n\s*|/\*[\s\S]*?\*/\s*)*\s*(` +
		strings.Join(writeKeywords, "|") +
		`)(?:\s|$|;|\()`,
)

// isWriteQuery reports whether sql contains a statement led by a write or
// transaction control keyword.
func isWriteQuery(sql string) bool {
	return writePattern.MatchString(strings.TrimSpace(sql))
}
