package sqlscope

import (
	"strconv"
	"strings"
)

// BindNamer mints the bind parameter for one value of a condition.
//
// param is the condition name, ordinal counts the values minted for that
// condition so far (from 1) and position counts every bind parameter of the
// statement (from 1). name is the key reported by Query.Parameters;
// placeholder is the text written into the SQL.
type BindNamer func(param string, ordinal, position int) (name, placeholder string)

// bindName is the shared naming scheme: p<param>_<ordinal>.
func bindName(param string, ordinal int) string {
	return "p" + param + "_" + strconv.Itoa(ordinal)
}

// ColonNamer writes :pname_1 placeholders (Oracle, SQLite, most ORMs).
func ColonNamer(param string, ordinal, _ int) (string, string) {
	name := bindName(param, ordinal)
	return name, ":" + name
}

// AtNamer writes @pname_1 placeholders (SQL Server, pgx named arguments).
func AtNamer(param string, ordinal, _ int) (string, string) {
	name := bindName(param, ordinal)
	return name, "@" + name
}

// QuestionNamer writes positional ? placeholders (MySQL, ODBC).
func QuestionNamer(param string, ordinal, _ int) (string, string) {
	return bindName(param, ordinal), "?"
}

// DollarNamer writes numbered $1 placeholders (Postgres).
func DollarNamer(param string, ordinal, position int) (string, string) {
	return bindName(param, ordinal), "$" + strconv.Itoa(position)
}

// IsAnonymous reports whether n writes placeholders that carry neither the
// bind name nor the position, like ?. Every occurrence of such a placeholder
// consumes its own argument.
func IsAnonymous(n BindNamer) bool {
	name, first := n("x", 1, 1)
	_, second := n("x", 1, 2)
	return first == second && !strings.Contains(first, name)
}
