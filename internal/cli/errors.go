// Package cli provides configuration, conditions files and exit-coded
// errors for the sqlscope command.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/pthm/sqlscope"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitConfig      = 2
	ExitScriptParse = 3
	ExitDBConnect   = 4
	ExitCondition   = 5
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(ExitCode(err))
}

// ExitCode returns the exit code carried by err, ExitGeneral when it
// carries none and ExitSuccess for nil.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// ScriptParseError creates an ExitError with ExitScriptParse code.
func ScriptParseError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitScriptParse, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// ConditionError creates an ExitError with ExitCondition code.
func ConditionError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitCondition, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}

// RenderError classifies an error returned by Query.SQL: malformed scripts
// exit with ExitScriptParse, condition and variable problems with
// ExitCondition.
func RenderError(msg string, err error) *ExitError {
	switch {
	case sqlscope.IsTokenizeErr(err):
		return ScriptParseError(msg, err)
	case sqlscope.IsUnmatchedConditionErr(err),
		sqlscope.IsInvalidConditionErr(err),
		sqlscope.IsUnsafeVariableErr(err):
		return ConditionError(msg, err)
	}
	return GeneralError(msg, err)
}
