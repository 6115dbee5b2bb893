package sqlscope

import (
	"fmt"
	"time"

	"github.com/pthm/sqlscope/internal/fragment"
)

// Fragment is a rendered condition: an SQL snippet with positional
// placeholders ({0}, {1}, ...) and the values that fill them, in order.
type Fragment struct {
	Template string
	Args     []any
}

// Value renders itself under an operator. Implementations are immutable.
//
// The built-in kinds (Bool, Number, String, Date, Expr) enforce which
// operators they support. Custom kinds may render anything, including inline
// SQL with no Args; the engine only checks that every placeholder has a value.
type Value interface {
	Fragment(op Operator) (Fragment, error)
}

// Splitter is implemented by values that hold a list of elements. Compound
// parameters ([name.Item]) render one fragment per element.
type Splitter interface {
	Split() []Value
}

// ValueFunc adapts a function to the Value interface.
type ValueFunc func(op Operator) (Fragment, error)

// Fragment calls f(op).
func (f ValueFunc) Fragment(op Operator) (Fragment, error) {
	return f(op)
}

// kind describes the operators a built-in value kind supports.
type kind struct {
	name    string
	ordered bool // ranges and ordering comparisons
	like    bool // Contains / DoesNotContain
}

var (
	boolKind   = kind{name: "bool"}
	numberKind = kind{name: "number", ordered: true}
	dateKind   = kind{name: "date", ordered: true}
	stringKind = kind{name: "string", ordered: true, like: true}
	exprKind   = kind{name: "expression", ordered: true, like: true}
)

func (k kind) allows(op Operator) bool {
	switch op {
	case Is, IsNot, IsAnyOf, IsNotAnyOf:
		return true
	case IsBetween, IsNotBetween, IsLessThan, IsLessThanOrEqualTo, IsGreaterThan, IsGreaterThanOrEqualTo:
		return k.ordered
	case Contains, DoesNotContain:
		return k.like
	}
	return false
}

// operands turns items into fragment expressions, collecting bound values.
type operands struct {
	inline bool
	args   []any
}

func (o *operands) add(v any) fragment.Expr {
	if o.inline {
		return fragment.Raw(fmt.Sprint(v))
	}
	o.args = append(o.args, v)
	return fragment.Placeholder(len(o.args) - 1)
}

// renderItems implements the operator rules shared by every built-in kind.
// A nil item is SQL NULL. When inline is set items are SQL text rather than
// bound values.
func renderItems(k kind, op Operator, items []any, inline bool) (Fragment, error) {
	if !k.allows(op) {
		return Fragment{}, fmt.Errorf("%w: %s on %s value", ErrIllegalOperator, op, k.name)
	}
	o := &operands{inline: inline}
	var expr fragment.Expr

	switch op {
	case Is, IsNot:
		if len(items) != 1 {
			return Fragment{}, fmt.Errorf("%w: %s expects one value, got %d", ErrArity, op, len(items))
		}
		if items[0] == nil {
			expr = fragment.IsNull{Not: op == IsNot}
			break
		}
		cmp := fragment.OpEq
		if op == IsNot {
			cmp = fragment.OpNe
		}
		expr = fragment.Cmp{Op: cmp, Right: o.add(items[0])}

	case IsAnyOf, IsNotAnyOf:
		vals := nonNull(items)
		switch len(vals) {
		case 0:
			return Fragment{}, fmt.Errorf("%w: %s needs at least one non-null value", ErrEmptyList, op)
		case 1:
			return renderItems(k, op.Single(), vals, inline)
		}
		list := make([]fragment.Expr, len(vals))
		for i, v := range vals {
			list[i] = o.add(v)
		}
		expr = fragment.In{Values: list, Not: op == IsNotAnyOf}

	case IsBetween, IsNotBetween:
		if len(items) == 0 || len(items) > 2 {
			return Fragment{}, fmt.Errorf("%w: %s expects two values, got %d", ErrArity, op, len(items))
		}
		if len(nonNull(items)) != len(items) {
			return Fragment{}, fmt.Errorf("%w: %s bounds", ErrNullNotAllowed, op)
		}
		if len(items) == 1 || equalItems(items[0], items[1]) {
			return renderItems(k, op.Single(), items[:1], inline)
		}
		low := o.add(items[0])
		high := o.add(items[1])
		expr = fragment.Between{Low: low, High: high, Not: op == IsNotBetween}

	case IsLessThan, IsLessThanOrEqualTo, IsGreaterThan, IsGreaterThanOrEqualTo:
		v, err := single(op, items)
		if err != nil {
			return Fragment{}, err
		}
		expr = fragment.Cmp{Op: comparison(op), Right: o.add(v)}

	case Contains, DoesNotContain:
		v, err := single(op, items)
		if err != nil {
			return Fragment{}, err
		}
		expr = fragment.Like{Pattern: o.add(v), Not: op == DoesNotContain}
	}

	return Fragment{Template: expr.SQL(), Args: o.args}, nil
}

func single(op Operator, items []any) (any, error) {
	if len(items) != 1 {
		return nil, fmt.Errorf("%w: %s expects one value, got %d", ErrArity, op, len(items))
	}
	if items[0] == nil {
		return nil, fmt.Errorf("%w: %s", ErrNullNotAllowed, op)
	}
	return items[0], nil
}

func comparison(op Operator) string {
	switch op {
	case IsLessThan:
		return fragment.OpLt
	case IsLessThanOrEqualTo:
		return fragment.OpLte
	case IsGreaterThan:
		return fragment.OpGt
	default:
		return fragment.OpGte
	}
}

func nonNull(items []any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

func equalItems(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

// checkFragment verifies every placeholder in f has a value.
func checkFragment(f Fragment) error {
	if n := fragment.Count(f.Template); n > len(f.Args) {
		return fmt.Errorf("%w: template %q uses %d placeholders but supplies %d values",
			ErrMalformedFragment, f.Template, n, len(f.Args))
	}
	return nil
}
