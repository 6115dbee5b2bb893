package sqlscope

import (
	"fmt"
	"reflect"
	"time"
)

// BoolValue holds boolean values. Only equality and list operators apply.
type BoolValue struct {
	items []any
}

// Bool returns a boolean value; several values form a list.
func Bool(vs ...bool) BoolValue {
	items := make([]any, len(vs))
	for i, v := range vs {
		items[i] = v
	}
	return BoolValue{items: items}
}

// NullBool returns a null boolean value.
func NullBool() BoolValue {
	return BoolValue{items: []any{nil}}
}

// Fragment renders the value under op.
func (v BoolValue) Fragment(op Operator) (Fragment, error) {
	return renderItems(boolKind, op, v.items, false)
}

// Split returns one value per element.
func (v BoolValue) Split() []Value {
	out := make([]Value, len(v.items))
	for i, it := range v.items {
		out[i] = BoolValue{items: []any{it}}
	}
	return out
}

// NumberValue holds numeric values of any Go numeric kind.
type NumberValue struct {
	items []any
}

// Number returns a numeric value; several values form a list. Accepted
// elements are the Go integer and floating point kinds, pointers to them,
// and nil (null). Other types fail when the value is rendered.
func Number(vs ...any) NumberValue {
	items := make([]any, len(vs))
	copy(items, vs)
	return NumberValue{items: items}
}

// NullNumber returns a null numeric value.
func NullNumber() NumberValue {
	return NumberValue{items: []any{nil}}
}

// Fragment renders the value under op.
func (v NumberValue) Fragment(op Operator) (Fragment, error) {
	items, err := numericItems(v.items)
	if err != nil {
		return Fragment{}, err
	}
	return renderItems(numberKind, op, items, false)
}

// Split returns one value per element.
func (v NumberValue) Split() []Value {
	out := make([]Value, len(v.items))
	for i, it := range v.items {
		out[i] = NumberValue{items: []any{it}}
	}
	return out
}

func numericItems(in []any) ([]any, error) {
	out := make([]any, len(in))
	for i, it := range in {
		if it == nil {
			continue
		}
		rv := reflect.ValueOf(it)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				continue
			}
			rv = rv.Elem()
		}
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			out[i] = rv.Interface()
		default:
			return nil, fmt.Errorf("%w: %T is not a number", ErrUnsupportedType, it)
		}
	}
	return out, nil
}

// MatchMode decides where wildcards are added to a string value.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchBeginsWith
	MatchEndsWith
	MatchAnywhere
)

// DefaultWildcard is the wildcard used by string match modes unless
// overridden with StringValue.Wildcard.
const DefaultWildcard = "%"

// StringValue holds text values with an optional match mode.
type StringValue struct {
	items    []any
	mode     MatchMode
	wildcard string
}

// String returns a text value; several values form a list.
func String(vs ...string) StringValue {
	items := make([]any, len(vs))
	for i, v := range vs {
		items[i] = v
	}
	return StringValue{items: items, wildcard: DefaultWildcard}
}

// NullString returns a null text value.
func NullString() StringValue {
	return StringValue{items: []any{nil}, wildcard: DefaultWildcard}
}

// Match returns a copy that adds wildcards according to mode before
// rendering: MatchBeginsWith appends one, MatchEndsWith prepends one and
// MatchAnywhere does both.
func (v StringValue) Match(mode MatchMode) StringValue {
	v.mode = mode
	return v
}

// Wildcard returns a copy that uses w as the wildcard.
func (v StringValue) Wildcard(w string) StringValue {
	v.wildcard = w
	return v
}

// Fragment renders the value under op.
func (v StringValue) Fragment(op Operator) (Fragment, error) {
	items := make([]any, len(v.items))
	for i, it := range v.items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		switch v.mode {
		case MatchBeginsWith:
			s += v.wildcard
		case MatchEndsWith:
			s = v.wildcard + s
		case MatchAnywhere:
			s = v.wildcard + s + v.wildcard
		}
		items[i] = s
	}
	return renderItems(stringKind, op, items, false)
}

// Split returns one value per element, keeping the match mode.
func (v StringValue) Split() []Value {
	out := make([]Value, len(v.items))
	for i, it := range v.items {
		e := v
		e.items = []any{it}
		out[i] = e
	}
	return out
}

// DateValue holds time values.
type DateValue struct {
	items    []any
	dateOnly bool
}

// Date returns a date value; several values form a list.
func Date(vs ...time.Time) DateValue {
	items := make([]any, len(vs))
	for i, v := range vs {
		items[i] = v
	}
	return DateValue{items: items}
}

// NullDate returns a null date value.
func NullDate() DateValue {
	return DateValue{items: []any{nil}}
}

// DateOnly returns a copy whose values are truncated to midnight in their
// own location before binding.
func (v DateValue) DateOnly() DateValue {
	v.dateOnly = true
	return v
}

// Fragment renders the value under op.
func (v DateValue) Fragment(op Operator) (Fragment, error) {
	items := v.items
	if v.dateOnly {
		items = make([]any, len(v.items))
		for i, it := range v.items {
			if t, ok := it.(time.Time); ok {
				items[i] = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			}
		}
	}
	return renderItems(dateKind, op, items, false)
}

// Split returns one value per element.
func (v DateValue) Split() []Value {
	out := make([]Value, len(v.items))
	for i, it := range v.items {
		e := v
		e.items = []any{it}
		out[i] = e
	}
	return out
}

// ExprValue holds inline SQL expressions. Nothing is bound: the expression
// text is written into the statement as-is, so it must never carry user input.
type ExprValue struct {
	items []any
}

// Expr returns an inline SQL value, e.g. Expr("now()") renders "= now()"
// under Is. Several expressions form a list.
func Expr(sql ...string) ExprValue {
	items := make([]any, len(sql))
	for i, s := range sql {
		items[i] = s
	}
	return ExprValue{items: items}
}

// Fragment renders the value under op.
func (v ExprValue) Fragment(op Operator) (Fragment, error) {
	return renderItems(exprKind, op, v.items, true)
}

// Split returns one value per element.
func (v ExprValue) Split() []Value {
	out := make([]Value, len(v.items))
	for i, it := range v.items {
		out[i] = ExprValue{items: []any{it}}
	}
	return out
}

var (
	_ Value    = BoolValue{}
	_ Value    = NumberValue{}
	_ Value    = StringValue{}
	_ Value    = DateValue{}
	_ Value    = ExprValue{}
	_ Value    = ValueFunc(nil)
	_ Splitter = BoolValue{}
	_ Splitter = NumberValue{}
	_ Splitter = StringValue{}
	_ Splitter = DateValue{}
	_ Splitter = ExprValue{}
)
