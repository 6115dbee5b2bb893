package sqlscope

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"

	"github.com/pthm/sqlscope/internal/fragment"
	"github.com/pthm/sqlscope/internal/markup"
	"github.com/pthm/sqlscope/internal/render"
)

// BindParameter is one bound value produced by Query.SQL.
type BindParameter struct {
	// Name is the bind parameter name minted by the engine's BindNamer.
	Name string
	// Value is the raw value handed to the database driver.
	Value any
	// Condition is the name of the condition that produced the value.
	Condition string
}

type condition struct {
	name     string
	op       Operator
	value    Value
	seq      int
	consumed bool
	minted   int
}

type variable struct {
	name  string
	value any
}

// Query is one statement being built from a script. It moves between two
// states: unparsed, and parsed once SQL has tokenized the script. Changing
// the script or hints returns it to unparsed.
//
// A Query is not safe for concurrent use.
type Query struct {
	engine *Engine
	script string
	hints  Hints
	tree   *markup.Tree

	conditions map[string]*condition
	seq        int
	variables  map[string]variable

	params []BindParameter
	// repeats counts the repetitions produced by each compound condition
	// during the last SQL call.
	repeats map[string]int
}

// Script returns the current script text.
func (q *Query) Script() string {
	return q.script
}

// SetScript replaces the script.
func (q *Query) SetScript(script string) *Query {
	if script != q.script {
		q.script = script
		q.tree = nil
	}
	return q
}

// SetHints replaces the dialect hints used to tokenize the script.
func (q *Query) SetHints(h Hints) *Query {
	if h != q.hints {
		q.hints = h
		q.tree = nil
	}
	return q
}

// Parsed reports whether the script has been tokenized since it last changed.
func (q *Query) Parsed() bool {
	return q.tree != nil
}

// SetCondition sets the condition for parameter name, replacing any
// condition with the same name. Names match case-insensitively.
func (q *Query) SetCondition(name string, op Operator, v Value) *Query {
	q.seq++
	q.conditions[strings.ToLower(name)] = &condition{name: name, op: op, value: v, seq: q.seq}
	return q
}

// RemoveCondition removes the condition for name, if any.
func (q *Query) RemoveCondition(name string) *Query {
	delete(q.conditions, strings.ToLower(name))
	return q
}

// ClearConditions removes every condition.
func (q *Query) ClearConditions() *Query {
	clear(q.conditions)
	return q
}

// DefineVariable sets a variable. A parameter with no condition but a
// variable of the same name is replaced by the variable's text, without
// binding. Variables persist until removed.
func (q *Query) DefineVariable(name string, value any) *Query {
	q.variables[strings.ToLower(name)] = variable{name: name, value: value}
	return q
}

// RemoveVariable removes the variable for name, if any.
func (q *Query) RemoveVariable(name string) *Query {
	delete(q.variables, strings.ToLower(name))
	return q
}

// SQL renders the statement. Bind parameters produced by the call are
// available from Parameters, NamedArgs and Args until the next call. On
// error no SQL and no parameters are produced.
func (q *Query) SQL() (string, error) {
	q.params = nil
	if q.tree == nil {
		tree, err := q.engine.parse(q.script, q.hints)
		if err != nil {
			return "", err
		}
		q.tree = tree
	}
	for _, c := range q.conditions {
		c.consumed, c.minted = false, 0
	}
	clear(q.repeats)

	sql, err := render.Evaluate(q.tree, q.resolve)
	if err != nil {
		q.params = nil
		return "", err
	}
	if err := q.checkRepeated(); err != nil {
		q.params = nil
		return "", err
	}
	if err := q.checkConsumed(); err != nil {
		q.params = nil
		return "", err
	}
	return sql, nil
}

// Parameters returns the bind parameters of the last SQL call in emission order.
func (q *Query) Parameters() []BindParameter {
	out := make([]BindParameter, len(q.params))
	copy(out, q.params)
	return out
}

// NamedArgs returns the bind parameters of the last SQL call keyed by name.
func (q *Query) NamedArgs() map[string]any {
	out := make(map[string]any, len(q.params))
	for _, p := range q.params {
		out[p.Name] = p.Value
	}
	return out
}

// Args returns the bind parameter values of the last SQL call in emission
// order, for positional placeholders.
func (q *Query) Args() []any {
	out := make([]any, len(q.params))
	for i, p := range q.params {
		out[i] = p.Value
	}
	return out
}

func (q *Query) resolve(p markup.Param) (render.Resolution, bool, error) {
	log := q.engine.logger

	if p.IsGlobal() {
		text, ok := q.engine.globals.lookup(p.Member)
		if !ok {
			log.Debug("unknown global declined", zap.String("param", p.String()))
			return render.Resolution{}, false, nil
		}
		return render.Resolution{Texts: []string{text}}, true, nil
	}

	key := strings.ToLower(p.Name)
	if c, ok := q.conditions[key]; ok {
		texts, err := q.renderCondition(c, p)
		if err != nil {
			return render.Resolution{}, false, err
		}
		c.consumed = true
		if p.IsCompound() {
			if q.repeats == nil {
				q.repeats = make(map[string]int)
			}
			q.repeats[key] = max(q.repeats[key], len(texts))
		}
		return render.Resolution{Texts: texts}, true, nil
	}

	if v, ok := q.variables[key]; ok {
		text, err := q.renderVariable(v)
		if err != nil {
			return render.Resolution{}, false, err
		}
		return render.Resolution{Texts: []string{text}}, true, nil
	}

	log.Debug("parameter declined", zap.String("param", p.String()))
	return render.Resolution{}, false, nil
}

// renderCondition returns the SQL for one occurrence of p. Compound
// parameters produce one text per element of a list value.
func (q *Query) renderCondition(c *condition, p markup.Param) ([]string, error) {
	values, op := []Value{c.value}, c.op
	if p.IsCompound() {
		if s, ok := c.value.(Splitter); ok {
			values, op = s.Split(), c.op.Single()
		}
	}
	if len(values) == 0 {
		return nil, &InvalidConditionError{Name: c.name, Operator: op, Err: ErrEmptyList}
	}

	texts := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			return nil, &InvalidConditionError{Name: c.name, Operator: op, Err: fmt.Errorf("%w: nil value", ErrUnsupportedType)}
		}
		frag, err := v.Fragment(op)
		if err == nil {
			err = checkFragment(frag)
		}
		if err != nil {
			return nil, &InvalidConditionError{Name: c.name, Operator: op, Err: err}
		}
		// A bind parameter stands for its values alone; the operator is
		// written in the script.
		if p.Form == markup.FormBind && (!bareList(op) || len(frag.Args) == 0) {
			return nil, &InvalidConditionError{
				Name:     c.name,
				Operator: op,
				Err:      fmt.Errorf("%w: %s needs bound values with Is or IsAnyOf", ErrIllegalOperator, p.String()),
			}
		}

		placeholders := make([]string, len(frag.Args))
		for i, arg := range frag.Args {
			c.minted++
			name, placeholder := q.engine.namer(c.name, c.minted, len(q.params)+1)
			q.params = append(q.params, BindParameter{Name: name, Value: arg, Condition: c.name})
			placeholders[i] = placeholder
			q.engine.logger.Debug("bind parameter",
				zap.String("condition", c.name),
				zap.String("name", name))
		}

		if p.Form == markup.FormBind {
			texts = append(texts, strings.Join(placeholders, ", "))
			continue
		}
		text, err := fragment.Fill(frag.Template, placeholders)
		if err != nil {
			return nil, &InvalidConditionError{Name: c.name, Operator: op, Err: fmt.Errorf("%w: %v", ErrMalformedFragment, err)}
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (q *Query) renderVariable(v variable) (string, error) {
	text := fmt.Sprint(v.value)
	if v.value == nil {
		text = ""
	}
	if _, ok := v.value.(string); !ok {
		return text, nil
	}
	if sqli, fingerprint := libinjection.IsSQLi(text); sqli {
		if q.engine.strict {
			return "", &UnsafeVariableError{Name: v.name, Fingerprint: fingerprint}
		}
		q.engine.logger.Warn("variable looks like SQL injection",
			zap.String("variable", v.name),
			zap.String("fingerprint", fingerprint))
	}
	return text, nil
}

// bareList reports whether op renders as a plain value or value list.
func bareList(op Operator) bool {
	return op == Is || op == IsAnyOf
}

// checkRepeated rejects statements in which an anonymous placeholder is
// written once per repetition of a compound scope but bound only once.
func (q *Query) checkRepeated() error {
	if !q.engine.anonymous || len(q.repeats) == 0 {
		return nil
	}
	for _, peer := range q.tree.CompoundPeers() {
		compound := q.tree.Node(peer.Compound).Param
		if q.repeats[strings.ToLower(compound.Name)] < 2 {
			continue
		}
		inner := q.tree.Node(peer.Param).Param
		c, ok := q.conditions[strings.ToLower(inner.Name)]
		if !ok || c.minted == 0 {
			continue
		}
		return &InvalidConditionError{
			Name:     c.name,
			Operator: c.op,
			Err:      fmt.Errorf("%w: %s inside the scope of %s", ErrRepeatedPlaceholder, inner.String(), compound.String()),
		}
	}
	return nil
}

func (q *Query) checkConsumed() error {
	var pending []*condition
	for _, c := range q.conditions {
		if !c.consumed {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	// Report in the order the conditions were set.
	slices.SortFunc(pending, func(a, b *condition) int {
		return cmp.Compare(a.seq, b.seq)
	})
	names := make([]string, len(pending))
	for i, c := range pending {
		names[i] = c.name
	}
	return &UnmatchedConditionError{Names: names}
}
