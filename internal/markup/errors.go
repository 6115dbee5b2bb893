package markup

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is matched by every tokenize error via errors.Is.
var ErrSyntax = errors.New("markup: syntax error")

// Error reports a malformed script. It names the construct that was left
// open (or was empty) and where it started.
type Error struct {
	Construct string
	Message   string
	Pos       int
	Line      int
	Column    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("markup: %s at line %d, column %d: %s", e.Construct, e.Line, e.Column, e.Message)
}

// Is lets errors.Is(err, ErrSyntax) match any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrSyntax
}

func newError(src string, pos int, construct, msg string) *Error {
	line, col := position(src, pos)
	return &Error{
		Construct: construct,
		Message:   msg,
		Pos:       pos,
		Line:      line,
		Column:    col,
	}
}

// position converts a byte offset into a 1-based line and column.
func position(src string, pos int) (line, col int) {
	if pos > len(src) {
		pos = len(src)
	}
	before := src[:pos]
	line = strings.Count(before, "\n") + 1
	col = pos - strings.LastIndexByte(before, '\n')
	return line, col
}
