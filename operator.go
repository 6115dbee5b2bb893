package sqlscope

import (
	"fmt"
	"strings"
)

// Operator selects how a condition's value is compared with the expression
// written before its parameter in the script.
type Operator int

const (
	Is Operator = iota + 1
	IsNot
	IsAnyOf
	IsNotAnyOf
	IsBetween
	IsNotBetween
	Contains
	DoesNotContain
	IsLessThan
	IsLessThanOrEqualTo
	IsGreaterThan
	IsGreaterThanOrEqualTo
)

var operatorNames = map[Operator]string{
	Is:                     "Is",
	IsNot:                  "IsNot",
	IsAnyOf:                "IsAnyOf",
	IsNotAnyOf:             "IsNotAnyOf",
	IsBetween:              "IsBetween",
	IsNotBetween:           "IsNotBetween",
	Contains:               "Contains",
	DoesNotContain:         "DoesNotContain",
	IsLessThan:             "IsLessThan",
	IsLessThanOrEqualTo:    "IsLessThanOrEqualTo",
	IsGreaterThan:          "IsGreaterThan",
	IsGreaterThanOrEqualTo: "IsGreaterThanOrEqualTo",
}

// String returns the operator name.
func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// ParseOperator accepts an operator name in CamelCase ("IsAnyOf"),
// snake_case ("is_any_of") or any case mix of either.
func ParseOperator(s string) (Operator, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for op, name := range operatorNames {
		if strings.ToLower(name) == key {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// Single returns the single-value counterpart of a list or range operator:
// IsAnyOf and IsBetween become Is, IsNotAnyOf and IsNotBetween become IsNot.
// Other operators are returned unchanged.
func (o Operator) Single() Operator {
	switch o {
	case IsAnyOf, IsBetween:
		return Is
	case IsNotAnyOf, IsNotBetween:
		return IsNot
	}
	return o
}

// Negated reports whether the operator is the negative form of another.
func (o Operator) Negated() bool {
	switch o {
	case IsNot, IsNotAnyOf, IsNotBetween, DoesNotContain:
		return true
	}
	return false
}
