// Package fragment provides typed building blocks for condition fragments.
//
// A fragment is the right-hand side of a predicate whose left-hand side is
// written in the script: "= {0}", "IN ({0}, {1})", "IS NULL". Bound values
// appear as positional placeholders ({0}, {1}, ...) that are replaced by
// bind-parameter names once they have been minted.
//
//	Cmp{Op: "=", Right: Placeholder(0)}             // = {0}
//	In{Values: Placeholders(0, 3)}                  // IN ({0}, {1}, {2})
//	Between{Low: Placeholder(0), High: Placeholder(1), Not: true}
//	IsNull{Not: true}                               // IS NOT NULL
//	Like{Pattern: Placeholder(0)}                   // LIKE {0}
//	Raw("now()")                                    // inline SQL, no binding
package fragment

import (
	"strconv"
	"strings"
)

// Expr is implemented by every fragment building block.
type Expr interface {
	SQL() string
}

// Placeholder is a positional reference to a bound value.
type Placeholder int

// SQL renders the placeholder as {n}.
func (p Placeholder) SQL() string {
	return "{" + strconv.Itoa(int(p)) + "}"
}

// Placeholders returns n consecutive placeholders starting at first.
func Placeholders(first, n int) []Expr {
	out := make([]Expr, n)
	for i := range out {
		out[i] = Placeholder(first + i)
	}
	return out
}

// Raw is inline SQL emitted verbatim.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// List renders expressions separated by commas.
type List []Expr

// SQL renders the list.
func (l List) SQL() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, ", ")
}

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string {
	return "(" + p.Expr.SQL() + ")"
}
