// Package sqlscope builds SQL statements from scripts with conditional scopes.
//
// A script is plain SQL annotated with scopes and parameters:
//
//	SELECT * FROM orders
//	{WHERE {customer_id [customer]} {created_at [created]}}
//
// Callers set conditions by parameter name. Scopes whose parameters have no
// condition disappear, along with their surrounding text, and surviving
// sibling scopes are joined with AND (or OR inside an '@' scope):
//
//	eng := sqlscope.New()
//	q := eng.Query(script)
//	q.SetCondition("customer", sqlscope.IsAnyOf, sqlscope.Number(7, 9))
//	sql, err := q.SQL()
//	// SELECT * FROM orders
//	// WHERE customer_id IN (:pcustomer_1, :pcustomer_2)
//	args := q.NamedArgs()
//
// Every condition must be consumed by a parameter of the script; a condition
// that matches nothing fails with *UnmatchedConditionError so typos surface
// immediately.
//
// An Engine holds configuration and the shared parse cache and is safe for
// concurrent use. A Query belongs to a single goroutine.
package sqlscope

import "github.com/pthm/sqlscope/internal/markup"

// Hints enable dialect-specific literal recognition in scripts.
type Hints = markup.Hints

const (
	// HintNone recognizes only standard SQL quoting.
	HintNone = markup.HintNone
	// HintOracle recognizes Oracle alternative quoting: q'[...]'.
	HintOracle = markup.HintOracle
	// HintPostgres recognizes Postgres dollar quoting: $tag$...$tag$.
	HintPostgres = markup.HintPostgres
	// HintAll enables every dialect.
	HintAll = markup.HintAll
)
