package markup

import (
	"strings"
)

// MaxDollarTag bounds the tag of a Postgres dollar-quoted literal. A '$'
// followed by a longer run of letters is plain SQL text.
const MaxDollarTag = 64

// Tokenize parses script into a token tree. The only failures are unclosed
// (or empty) markup and unterminated literals, comments or escapes.
func Tokenize(script string, hints Hints) (*Tree, error) {
	t := &tokenizer{
		src:   script,
		hints: hints,
		tree:  newTree(hints),
	}
	if err := t.run(); err != nil {
		return nil, err
	}
	return t.tree, nil
}

type tokenizer struct {
	src   string
	pos   int
	hints Hints
	tree  *Tree

	// cur is the innermost open container (root or scope).
	cur NodeID

	text    strings.Builder
	textPos int
}

// rule recognizes one construct at the current position. It reports whether
// it consumed input.
type rule func(t *tokenizer) (bool, error)

// rules are tried in priority order; the first match wins.
var rules = []rule{
	(*tokenizer).engineComment,
	(*tokenizer).sqlComment,
	(*tokenizer).lineComment,
	(*tokenizer).singleQuote,
	(*tokenizer).doubleQuote,
	(*tokenizer).oracleLiteral,
	(*tokenizer).dollarLiteral,
	(*tokenizer).escape,
	(*tokenizer).scopeOpen,
	(*tokenizer).bracketParam,
	(*tokenizer).bindParam,
}

func (t *tokenizer) run() error {
	for t.pos < len(t.src) {
		matched, err := t.next()
		if err != nil {
			return err
		}
		if matched {
			continue
		}

		c := t.src[t.pos]
		if c == '}' && t.cur != t.tree.Root() {
			t.closeScope()
			continue
		}
		t.appendText(t.src[t.pos : t.pos+1])
		t.pos++
	}
	t.flushText()

	if t.cur != t.tree.Root() {
		return newError(t.src, t.tree.Node(t.cur).Pos, "scope", "missing closing '}'")
	}
	return nil
}

func (t *tokenizer) next() (bool, error) {
	for _, r := range rules {
		ok, err := r(t)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (t *tokenizer) peek(offset int) byte {
	i := t.pos + offset
	if i < 0 || i >= len(t.src) {
		return 0
	}
	return t.src[i]
}

func (t *tokenizer) hasPrefix(s string) bool {
	return strings.HasPrefix(t.src[t.pos:], s)
}

func (t *tokenizer) appendText(s string) {
	if t.text.Len() == 0 {
		t.textPos = t.pos
	}
	t.text.WriteString(s)
}

func (t *tokenizer) flushText() {
	if t.text.Len() == 0 {
		return
	}
	t.tree.add(t.cur, Node{Kind: KindSQLText, Pos: t.textPos, Text: t.text.String()})
	t.text.Reset()
}

func (t *tokenizer) addLeaf(n Node) {
	t.flushText()
	t.tree.add(t.cur, n)
}

// Comments

func (t *tokenizer) engineComment() (bool, error) {
	if !t.hasPrefix("{*") {
		return false, nil
	}
	start := t.pos
	depth := 0
	i := start
	for i < len(t.src) {
		switch {
		case strings.HasPrefix(t.src[i:], "{*"):
			depth++
			i += 2
		case strings.HasPrefix(t.src[i:], "*}"):
			depth--
			i += 2
			if depth == 0 {
				t.addLeaf(Node{Kind: KindComment, Comment: CommentEngine, Pos: start, Raw: t.src[start:i]})
				t.pos = i
				return true, nil
			}
		default:
			i++
		}
	}
	return false, newError(t.src, start, CommentEngine.String(), "missing closing '*}'")
}

func (t *tokenizer) sqlComment() (bool, error) {
	if !t.hasPrefix("/*") {
		return false, nil
	}
	start := t.pos
	end := strings.Index(t.src[start+2:], "*/")
	if end < 0 {
		return false, newError(t.src, start, CommentSQL.String(), "missing closing '*/'")
	}
	end += start + 4
	t.addLeaf(Node{Kind: KindComment, Comment: CommentSQL, Pos: start, Raw: t.src[start:end]})
	t.pos = end
	return true, nil
}

func (t *tokenizer) lineComment() (bool, error) {
	if !t.hasPrefix("--") {
		return false, nil
	}
	start := t.pos
	end := strings.IndexByte(t.src[start:], '\n')
	if end < 0 {
		end = len(t.src)
	} else {
		end += start
	}
	t.addLeaf(Node{Kind: KindComment, Comment: CommentLine, Pos: start, Raw: t.src[start:end]})
	t.pos = end
	return true, nil
}

// Literals

func (t *tokenizer) singleQuote() (bool, error) {
	return t.quoted('\'', LiteralSingleQuote)
}

func (t *tokenizer) doubleQuote() (bool, error) {
	return t.quoted('"', LiteralDoubleQuote)
}

// quoted consumes a literal delimited by q. A doubled quote or a
// backslash-escaped quote (or backslash) does not close it.
func (t *tokenizer) quoted(q byte, kind LiteralKind) (bool, error) {
	if t.peek(0) != q {
		return false, nil
	}
	start := t.pos
	i := start + 1
	for i < len(t.src) {
		c := t.src[i]
		switch {
		case c == '\\' && i+1 < len(t.src) && (t.src[i+1] == q || t.src[i+1] == '\\'):
			i += 2
		case c == q && i+1 < len(t.src) && t.src[i+1] == q:
			i += 2
		case c == q:
			i++
			t.addLeaf(Node{Kind: KindLiteral, Literal: kind, Pos: start, Raw: t.src[start:i]})
			t.pos = i
			return true, nil
		default:
			i++
		}
	}
	return false, newError(t.src, start, kind.String(), "missing closing quote")
}

// oracleLiteral consumes q'<open>...<close>'. Bracket delimiters pair with
// their counterpart; any other character closes itself.
func (t *tokenizer) oracleLiteral() (bool, error) {
	if !t.hints.Has(HintOracle) {
		return false, nil
	}
	if c := t.peek(0); (c != 'q' && c != 'Q') || t.peek(1) != '\'' {
		return false, nil
	}
	if t.pos > 0 && isNameChar(t.src[t.pos-1]) {
		return false, nil
	}
	open := t.peek(2)
	if open == 0 || isSpace(open) || open == '\'' || open == '"' {
		return false, nil
	}
	closing := open
	switch open {
	case '[':
		closing = ']'
	case '{':
		closing = '}'
	case '(':
		closing = ')'
	case '<':
		closing = '>'
	}

	start := t.pos
	terminator := string([]byte{closing, '\''})
	end := strings.Index(t.src[start+3:], terminator)
	if end < 0 {
		return false, newError(t.src, start, LiteralOracle.String(), "missing closing "+terminator)
	}
	end += start + 3 + len(terminator)
	t.addLeaf(Node{Kind: KindLiteral, Literal: LiteralOracle, Pos: start, Raw: t.src[start:end]})
	t.pos = end
	return true, nil
}

// dollarLiteral consumes $tag$...$tag$. The opener must follow whitespace or
// the start of input and the tag must be alphabetic; anything else, including
// an opener with no matching close, is left as plain text.
func (t *tokenizer) dollarLiteral() (bool, error) {
	if !t.hints.Has(HintPostgres) || t.peek(0) != '$' {
		return false, nil
	}
	if t.pos > 0 && !isSpace(t.src[t.pos-1]) {
		return false, nil
	}
	start := t.pos
	i := start + 1
	for i < len(t.src) && i-start-1 <= MaxDollarTag && isLetter(t.src[i]) {
		i++
	}
	if i >= len(t.src) || t.src[i] != '$' || i-start-1 > MaxDollarTag {
		return false, nil
	}
	tag := t.src[start : i+1]
	end := strings.Index(t.src[i+1:], tag)
	if end < 0 {
		return false, nil
	}
	end += i + 1 + len(tag)
	t.addLeaf(Node{Kind: KindLiteral, Literal: LiteralDollar, Pos: start, Raw: t.src[start:end]})
	t.pos = end
	return true, nil
}

// Escapes

// escape resolves $[...]$, ${...}$, [[ and {{ into plain SQL text.
func (t *tokenizer) escape() (bool, error) {
	switch {
	case t.hasPrefix("$["):
		return t.blockEscape('[', "]$")
	case t.hasPrefix("${"):
		return t.blockEscape('{', "}$")
	case t.hasPrefix("[["):
		t.appendText("[")
		t.pos += 2
		return true, nil
	case t.hasPrefix("{{"):
		t.appendText("{")
		t.pos += 2
		return true, nil
	}
	return false, nil
}

func (t *tokenizer) blockEscape(open byte, terminator string) (bool, error) {
	start := t.pos
	end := strings.Index(t.src[start+2:], terminator)
	if end < 0 {
		return false, newError(t.src, start, "escape", "missing closing '"+terminator+"'")
	}
	end += start + 2
	t.appendText(string(open) + t.src[start+2:end] + terminator[:1])
	t.pos = end + len(terminator)
	return true, nil
}

// Scopes

// scopeOpener reports the length of a scope opener at pos ("{", "@{", "+{",
// "+@{") along with its flags and '+' marker.
func (t *tokenizer) scopeOpener(pos int) (n int, flags string, noSep bool) {
	i := pos
	if i < len(t.src) && t.src[i] == '+' {
		noSep = true
		i++
	}
	if i < len(t.src) && t.src[i] == '@' {
		flags = "@"
		i++
	}
	if i >= len(t.src) || t.src[i] != '{' {
		return 0, "", false
	}
	if next := i + 1; next < len(t.src) && (t.src[next] == '*' || t.src[next] == '{') {
		return 0, "", false
	}
	return i + 1 - pos, flags, noSep
}

func (t *tokenizer) scopeOpen() (bool, error) {
	n, flags, noSep := t.scopeOpener(t.pos)
	if n == 0 {
		return false, nil
	}
	t.flushText()
	t.cur = t.tree.add(t.cur, Node{Kind: KindScope, Pos: t.pos, Flags: flags, NoSeparator: noSep})
	t.pos += n
	return true, nil
}

// closeScope closes the current scope. When the next sibling is also a scope
// the whitespace between them becomes a ScopeSeparator.
func (t *tokenizer) closeScope() {
	t.flushText()
	t.cur = t.tree.Parent(t.cur)
	t.pos++

	ws := t.pos
	for ws < len(t.src) && isSpace(t.src[ws]) {
		ws++
	}
	if n, _, _ := t.scopeOpener(ws); n == 0 {
		return
	}
	t.tree.add(t.cur, Node{Kind: KindScopeSeparator, Pos: t.pos, Text: t.src[t.pos:ws]})
	t.pos = ws
}

// Parameters

func (t *tokenizer) bracketParam() (bool, error) {
	if t.peek(0) != '[' {
		return false, nil
	}
	start := t.pos
	end := strings.IndexByte(t.src[start+1:], ']')
	if end < 0 {
		return false, newError(t.src, start, "parameter", "missing closing ']'")
	}
	end += start + 1
	body := t.src[start+1 : end]

	parts := strings.Split(body, "|")
	name := strings.TrimSpace(parts[0])
	var member string
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		name, member = strings.TrimSpace(name[:dot]), strings.TrimSpace(name[dot+1:])
	}
	if name == "" {
		return false, newError(t.src, start, "parameter", "empty parameter name")
	}
	var flags []string
	if len(parts) > 1 {
		flags = parts[1:]
	}

	t.addLeaf(Node{
		Kind: KindParameter,
		Pos:  start,
		Raw:  t.src[start : end+1],
		Param: Param{
			Name:   name,
			Member: member,
			Flags:  flags,
			Form:   FormBracket,
		},
	})
	t.pos = end + 1
	return true, nil
}

// bindParam consumes :name, @name or ?name. Casts (::), system variables
// (@@x), positional markers (:1, ?) and sigils glued to identifiers stay text.
func (t *tokenizer) bindParam() (bool, error) {
	sigil := t.peek(0)
	if sigil != ':' && sigil != '@' && sigil != '?' {
		return false, nil
	}
	if t.pos > 0 {
		if prev := t.src[t.pos-1]; isNameChar(prev) || prev == sigil {
			return false, nil
		}
	}
	if c := t.peek(1); !isLetter(c) && c != '_' {
		return false, nil
	}
	start := t.pos
	i := start + 1
	for i < len(t.src) && isNameChar(t.src[i]) {
		i++
	}
	t.addLeaf(Node{
		Kind: KindParameter,
		Pos:  start,
		Raw:  t.src[start:i],
		Param: Param{
			Name:  t.src[start+1 : i],
			Form:  FormBind,
			Sigil: sigil,
		},
	})
	t.pos = i
	return true, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isLetter(c) || c == '_' || (c >= '0' && c <= '9')
}
