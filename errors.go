package sqlscope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm/sqlscope/internal/markup"
)

// Sentinel errors describing why a condition value could not be rendered.
// They are wrapped by *InvalidConditionError when surfaced from Query.SQL.
var (
	// ErrIllegalOperator is returned when an operator is not defined for a
	// value kind, e.g. Contains on a number.
	ErrIllegalOperator = errors.New("sqlscope: illegal operator/value combination")

	// ErrEmptyList is returned when a list operator has no non-null values.
	ErrEmptyList = errors.New("sqlscope: empty value list")

	// ErrArity is returned when an operator receives the wrong number of values.
	ErrArity = errors.New("sqlscope: wrong number of values")

	// ErrNullNotAllowed is returned when a null appears where the operator
	// cannot express it (ranges, ordering comparisons, LIKE).
	ErrNullNotAllowed = errors.New("sqlscope: null value not allowed")

	// ErrUnsupportedType is returned when a value has a Go type the value kind
	// cannot bind.
	ErrUnsupportedType = errors.New("sqlscope: unsupported value type")

	// ErrMalformedFragment is returned when a custom value's fragment refers to
	// placeholders it did not supply values for.
	ErrMalformedFragment = errors.New("sqlscope: malformed fragment")

	// ErrRepeatedPlaceholder is returned when an anonymous placeholder (?)
	// would be written once per repetition of a compound parameter's scope
	// while its value is bound only once.
	ErrRepeatedPlaceholder = errors.New("sqlscope: anonymous placeholder repeated by a compound scope")
)

// TokenizeError reports a malformed script. It matches ErrSyntax.
type TokenizeError = markup.Error

// ErrSyntax is matched by every TokenizeError via errors.Is.
var ErrSyntax = markup.ErrSyntax

// UnmatchedConditionError reports conditions whose parameter never appeared
// in the script. This almost always means a typo in the script or the
// condition name.
type UnmatchedConditionError struct {
	Names []string
}

func (e *UnmatchedConditionError) Error() string {
	return fmt.Sprintf("sqlscope: conditions not matched by any script parameter: %s", strings.Join(e.Names, ", "))
}

// InvalidConditionError reports a condition whose value could not be
// rendered for its operator.
type InvalidConditionError struct {
	Name     string
	Operator Operator
	Err      error
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("sqlscope: invalid condition %q (%s): %v", e.Name, e.Operator, e.Err)
}

func (e *InvalidConditionError) Unwrap() error {
	return e.Err
}

// UnsafeVariableError is returned under strict variable screening when a
// variable's text looks like SQL injection.
type UnsafeVariableError struct {
	Name        string
	Fingerprint string
}

func (e *UnsafeVariableError) Error() string {
	return fmt.Sprintf("sqlscope: variable %q rejected as possible SQL injection (fingerprint %s)", e.Name, e.Fingerprint)
}

// IsTokenizeErr returns true if err is or wraps a TokenizeError.
func IsTokenizeErr(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// IsUnmatchedConditionErr returns true if err is or wraps an UnmatchedConditionError.
func IsUnmatchedConditionErr(err error) bool {
	var target *UnmatchedConditionError
	return errors.As(err, &target)
}

// IsInvalidConditionErr returns true if err is or wraps an InvalidConditionError.
func IsInvalidConditionErr(err error) bool {
	var target *InvalidConditionError
	return errors.As(err, &target)
}

// IsUnsafeVariableErr returns true if err is or wraps an UnsafeVariableError.
func IsUnsafeVariableErr(err error) bool {
	var target *UnsafeVariableError
	return errors.As(err, &target)
}
