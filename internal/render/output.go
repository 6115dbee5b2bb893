package render

import "strings"

// output accumulates rendered SQL and remembers where scopes were elided so
// the whitespace around those points can be tidied.
type output struct {
	buf   []byte
	marks []int
	// fences are positions just after line comments. A run never extends
	// back past one, and a run starting at one keeps its newline.
	fences []int
}

func (o *output) WriteString(s string) {
	o.buf = append(o.buf, s...)
}

// WriteLineComment writes a -- comment, which must stay followed by a
// newline whenever anything follows it.
func (o *output) WriteLineComment(s string) {
	o.buf = append(o.buf, s...)
	o.fences = append(o.fences, len(o.buf))
}

// Elide records that a scope was dropped at the current position.
func (o *output) Elide() {
	o.marks = append(o.marks, len(o.buf))
}

// String returns the text with every whitespace run touching an elision
// point reduced to a single newline (if the run had one) or a single space.
// Runs at either end of the text are removed.
func (o *output) String() string {
	s := o.buf
	limit := len(s) + 1
	for i := len(o.marks) - 1; i >= 0; i-- {
		m := o.marks[i]
		if m >= limit {
			// Same run as the mark processed before it.
			continue
		}
		floor := o.fence(m)
		start, end := m, m
		for start > floor && isSpace(s[start-1]) {
			start--
		}
		for end < len(s) && isSpace(s[end]) {
			end++
		}
		repl := collapse(string(s[start:end]), start == 0 || end == len(s))
		if floor > 0 && start == floor {
			repl = "\n"
		}
		s = append(s[:start:start], append([]byte(repl), s[end:]...)...)
		limit = start
	}
	return string(s)
}

// fence returns the last fence at or before pos, or 0.
func (o *output) fence(pos int) int {
	floor := 0
	for _, f := range o.fences {
		if f <= pos {
			floor = f
		}
	}
	return floor
}

func collapse(run string, edge bool) string {
	switch {
	case edge || run == "":
		return ""
	case strings.IndexByte(run, '\n') >= 0:
		return "\n"
	default:
		return " "
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
