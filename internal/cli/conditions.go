package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"sigs.k8s.io/yaml"

	"github.com/pthm/sqlscope"
)

// ConditionsFile is the document read by --conditions:
//
//	conditions:
//	  - name: customer
//	    operator: is_any_of
//	    values: [3, 7]
//	  - name: created
//	    operator: is_greater_than
//	    type: date
//	    value: "2024-01-31"
//	variables:
//	  table: orders
type ConditionsFile struct {
	Conditions []ConditionSpec `json:"conditions"`
	Variables  map[string]any  `json:"variables"`
}

// ConditionSpec describes one condition. Type is one of bool, number,
// string, date or expr and is inferred from the values when empty. A
// condition with no values is null.
type ConditionSpec struct {
	Name     string `json:"name"`
	Operator string `json:"operator"`
	Type     string `json:"type,omitempty"`
	Value    any    `json:"value,omitempty"`
	Values   []any  `json:"values,omitempty"`

	// String options.
	Match    string `json:"match,omitempty"`
	Wildcard string `json:"wildcard,omitempty"`

	// Date options.
	DateOnly bool `json:"date_only,omitempty"`
}

// LoadConditions reads a conditions file.
func LoadConditions(path string) (*ConditionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading conditions file: %w", err)
	}
	f, err := ParseConditions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseConditions decodes a conditions document.
func ParseConditions(data []byte) (*ConditionsFile, error) {
	var f ConditionsFile
	useNumber := func(d *json.Decoder) *json.Decoder {
		d.UseNumber()
		return d
	}
	if err := yaml.Unmarshal(data, &f, useNumber); err != nil {
		return nil, fmt.Errorf("decoding conditions: %w", err)
	}
	for i, c := range f.Conditions {
		if c.Name == "" {
			return nil, fmt.Errorf("condition %d: name is required", i+1)
		}
	}
	return &f, nil
}

// Apply sets every condition and variable on q.
func (f *ConditionsFile) Apply(q *sqlscope.Query) error {
	for _, c := range f.Conditions {
		op, v, err := c.Build()
		if err != nil {
			return fmt.Errorf("condition %q: %w", c.Name, err)
		}
		q.SetCondition(c.Name, op, v)
	}

	names := make([]string, 0, len(f.Variables))
	for name := range f.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		q.DefineVariable(name, plainValue(f.Variables[name]))
	}
	return nil
}

// Build returns the operator and value described by c.
func (c ConditionSpec) Build() (sqlscope.Operator, sqlscope.Value, error) {
	opName := c.Operator
	if opName == "" {
		opName = "is"
	}
	op, err := sqlscope.ParseOperator(opName)
	if err != nil {
		return 0, nil, err
	}

	raw := c.Values
	if c.Value != nil {
		raw = append([]any{c.Value}, raw...)
	}

	kind := strings.ToLower(c.Type)
	if kind == "" {
		kind = inferType(raw)
	}

	v, err := c.value(kind, raw)
	if err != nil {
		return 0, nil, err
	}
	return op, v, nil
}

func (c ConditionSpec) value(kind string, raw []any) (sqlscope.Value, error) {
	switch kind {
	case "bool", "boolean":
		if len(raw) == 0 {
			return sqlscope.NullBool(), nil
		}
		vs := make([]bool, len(raw))
		for i, r := range raw {
			b, ok := r.(bool)
			if !ok {
				return nil, fmt.Errorf("value %v is not a bool", r)
			}
			vs[i] = b
		}
		return sqlscope.Bool(vs...), nil

	case "number", "numeric":
		if len(raw) == 0 {
			return sqlscope.NullNumber(), nil
		}
		vs := make([]any, len(raw))
		for i, r := range raw {
			n, err := toNumber(r)
			if err != nil {
				return nil, err
			}
			vs[i] = n
		}
		return sqlscope.Number(vs...), nil

	case "string", "text":
		mode, err := parseMatch(c.Match)
		if err != nil {
			return nil, err
		}
		var v sqlscope.StringValue
		if len(raw) == 0 {
			v = sqlscope.NullString()
		} else {
			vs := make([]string, len(raw))
			for i, r := range raw {
				vs[i] = fmt.Sprint(r)
			}
			v = sqlscope.String(vs...)
		}
		v = v.Match(mode)
		if c.Wildcard != "" {
			v = v.Wildcard(c.Wildcard)
		}
		return v, nil

	case "date", "time", "timestamp":
		var v sqlscope.DateValue
		if len(raw) == 0 {
			v = sqlscope.NullDate()
		} else {
			vs := make([]time.Time, len(raw))
			for i, r := range raw {
				t, err := dateparse.ParseIn(fmt.Sprint(r), time.UTC)
				if err != nil {
					return nil, fmt.Errorf("parsing date %v: %w", r, err)
				}
				vs[i] = t
			}
			v = sqlscope.Date(vs...)
		}
		if c.DateOnly {
			v = v.DateOnly()
		}
		return v, nil

	case "expr", "sql":
		vs := make([]string, len(raw))
		for i, r := range raw {
			vs[i] = fmt.Sprint(r)
		}
		return sqlscope.Expr(vs...), nil
	}
	return nil, fmt.Errorf("unknown value type %q", kind)
}

func inferType(raw []any) string {
	if len(raw) == 0 {
		return "string"
	}
	switch raw[0].(type) {
	case bool:
		return "bool"
	case json.Number, float64, int64, int:
		return "number"
	}
	return "string"
}

func toNumber(r any) (any, error) {
	switch n := r.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("value %v is not a number", r)
		}
		return f, nil
	case float64, int64, int:
		return n, nil
	case string:
		return toNumber(json.Number(n))
	}
	return nil, fmt.Errorf("value %v is not a number", r)
}

func parseMatch(s string) (sqlscope.MatchMode, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "", "exact":
		return sqlscope.MatchExact, nil
	case "begins_with", "prefix":
		return sqlscope.MatchBeginsWith, nil
	case "ends_with", "suffix":
		return sqlscope.MatchEndsWith, nil
	case "anywhere", "contains":
		return sqlscope.MatchAnywhere, nil
	}
	return 0, fmt.Errorf("unknown match mode %q", s)
}

// plainValue turns decoded JSON numbers into int64 or float64 so variables
// print the way they were written.
func plainValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
