// Package markup parses dynamic SQL scripts into a token tree.
//
// A script is ordinary SQL text with a small markup language layered on top:
//
//	{WHERE {COL1 [c1]} {COL2 [c2]}}   conditional scopes with bracket parameters
//	@{A [a]} ...                      scope whose children are OR-joined
//	+{B [b]}                          scope joined to its predecessor without a keyword
//	:name @name ?name                 bind-variable parameters
//	{* removed *}                     engine comments (nestable)
//	$[literal brackets]$ [[ {{        escapes
//
// SQL quoting (single, double, Oracle q'..', Postgres $tag$) and comments are
// recognized so markup characters inside them are never interpreted.
//
// The tree is stored as an arena: nodes live in a single slice, children are
// addressed by NodeID, and each node records its parent's NodeID. A Tree is
// immutable once Tokenize returns and may be shared between goroutines.
package markup

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a Node.
type Kind uint8

const (
	KindRoot Kind = iota
	KindSQLText
	KindScope
	KindParameter
	KindLiteral
	KindComment
	KindScopeSeparator
)

var kindNames = [...]string{
	KindRoot:           "Root",
	KindSQLText:        "SQLText",
	KindScope:          "Scope",
	KindParameter:      "Parameter",
	KindLiteral:        "Literal",
	KindComment:        "Comment",
	KindScopeSeparator: "ScopeSeparator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// LiteralKind identifies the quoting convention of a Literal node.
type LiteralKind uint8

const (
	LiteralSingleQuote LiteralKind = iota
	LiteralDoubleQuote
	LiteralOracle
	LiteralDollar
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralSingleQuote:
		return "single-quote literal"
	case LiteralDoubleQuote:
		return "double-quote literal"
	case LiteralOracle:
		return "oracle literal"
	case LiteralDollar:
		return "dollar-quoted literal"
	}
	return fmt.Sprintf("LiteralKind(%d)", k)
}

// CommentKind identifies the flavour of a Comment node.
type CommentKind uint8

const (
	// CommentSQL is a /* ... */ block comment, passed through to the output.
	CommentSQL CommentKind = iota
	// CommentLine is a -- comment running to the end of the line, passed through.
	CommentLine
	// CommentEngine is a {* ... *} comment, removed from the output.
	CommentEngine
)

func (k CommentKind) String() string {
	switch k {
	case CommentSQL:
		return "sql comment"
	case CommentLine:
		return "line comment"
	case CommentEngine:
		return "engine comment"
	}
	return fmt.Sprintf("CommentKind(%d)", k)
}

// Hints enable dialect-specific literal recognition.
type Hints uint8

const (
	// HintOracle enables Oracle alternative quoting: q'[...]'.
	HintOracle Hints = 1 << iota
	// HintPostgres enables Postgres dollar quoting: $tag$...$tag$.
	HintPostgres

	HintNone Hints = 0
	HintAll        = HintOracle | HintPostgres
)

// Has reports whether every hint in h2 is set in h.
func (h Hints) Has(h2 Hints) bool {
	return h&h2 == h2
}

// ParamForm distinguishes the two surface syntaxes of a parameter.
type ParamForm uint8

const (
	// FormBracket is [name], [name.Member] or [name|flag].
	FormBracket ParamForm = iota
	// FormBind is :name, @name or ?name.
	FormBind
)

// GlobalName is the parameter name that selects the built-in globals table.
const GlobalName = "Global"

// Param describes a parameter placeholder.
type Param struct {
	Name   string
	Member string
	Flags  []string
	Form   ParamForm
	// Sigil is the leading character of a bind-variable parameter.
	Sigil byte
}

// IsGlobal reports whether the parameter reads from the globals table ([Global.key]).
func (p Param) IsGlobal() bool {
	return p.Form == FormBracket && p.Member != "" && strings.EqualFold(p.Name, GlobalName)
}

// IsCompound reports whether the parameter repeats its enclosing scope once
// per value ([name.Item]).
func (p Param) IsCompound() bool {
	return p.Member != "" && !p.IsGlobal()
}

// Separator returns the text placed between repetitions of a compound
// parameter's scope. Keyword flags such as OR are padded with spaces.
func (p Param) Separator() string {
	if len(p.Flags) == 0 || p.Flags[0] == "" {
		return ", "
	}
	flag := p.Flags[0]
	trimmed := strings.TrimSpace(flag)
	if trimmed != "" && isAlphaWord(trimmed) {
		return " " + trimmed + " "
	}
	return flag
}

func (p Param) String() string {
	if p.Form == FormBind {
		return string(p.Sigil) + p.Name
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(p.Name)
	if p.Member != "" {
		b.WriteByte('.')
		b.WriteString(p.Member)
	}
	for _, f := range p.Flags {
		b.WriteByte('|')
		b.WriteString(f)
	}
	b.WriteByte(']')
	return b.String()
}

// NodeID addresses a node inside a Tree.
type NodeID int32

// NoParent is the parent of the root node.
const NoParent NodeID = -1

// Node is one element of the token tree. Only the fields relevant to its
// Kind are populated.
type Node struct {
	Kind     Kind
	Parent   NodeID
	Children []NodeID
	// Pos is the byte offset of the node in the source script.
	Pos int

	// Text holds resolved SQL for KindSQLText and the whitespace run for
	// KindScopeSeparator.
	Text string
	// Raw holds the exact source for literals, comments and parameters.
	Raw string

	// Flags holds the single-character scope flags (e.g. "@").
	Flags string
	// NoSeparator marks a scope written with a leading '+'.
	NoSeparator bool

	Param   Param
	Literal LiteralKind
	Comment CommentKind
}

// HasFlag reports whether a scope node carries the flag character.
func (n *Node) HasFlag(flag byte) bool {
	return strings.IndexByte(n.Flags, flag) >= 0
}

// Tree is the arena holding a parsed script. Node 0 is the root.
type Tree struct {
	Nodes []Node
	Hints Hints
}

func newTree(hints Hints) *Tree {
	return &Tree{
		Nodes: []Node{{Kind: KindRoot, Parent: NoParent}},
		Hints: hints,
	}
}

// Root returns the root node id.
func (t *Tree) Root() NodeID {
	return 0
}

// Node returns the node for id. Callers must not modify it.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Parent returns the parent of id, or NoParent for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.Nodes[id].Parent
}

// EnclosingScope returns the nearest ancestor that is a scope or the root.
func (t *Tree) EnclosingScope(id NodeID) NodeID {
	for p := t.Nodes[id].Parent; p != NoParent; p = t.Nodes[p].Parent {
		if k := t.Nodes[p].Kind; k == KindScope || k == KindRoot {
			return p
		}
	}
	return t.Root()
}

// Walk visits nodes depth-first in document order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	var walk func(id NodeID, depth int)
	walk = func(id NodeID, depth int) {
		if !fn(id, depth) {
			return
		}
		for _, c := range t.Nodes[id].Children {
			walk(c, depth+1)
		}
	}
	walk(t.Root(), 0)
}

// Parameters returns every parameter node in document order.
func (t *Tree) Parameters() []NodeID {
	var out []NodeID
	t.Walk(func(id NodeID, _ int) bool {
		if t.Nodes[id].Kind == KindParameter {
			out = append(out, id)
		}
		return true
	})
	return out
}

// Peer pairs a compound parameter with a single-valued parameter inside the
// scope the compound parameter repeats.
type Peer struct {
	Compound NodeID
	Param    NodeID
}

// CompoundPeers returns every non-global, single-valued parameter repeated
// along with a compound parameter's enclosing scope, ordered by compound
// parameter and then by document order.
func (t *Tree) CompoundPeers() []Peer {
	params := t.Parameters()
	var out []Peer
	for _, c := range params {
		if !t.Nodes[c].Param.IsCompound() {
			continue
		}
		scope := t.EnclosingScope(c)
		for _, id := range params {
			p := t.Nodes[id].Param
			if p.IsCompound() || p.IsGlobal() || !t.within(id, scope) {
				continue
			}
			out = append(out, Peer{Compound: c, Param: id})
		}
	}
	return out
}

// within reports whether ancestor is a proper ancestor of id.
func (t *Tree) within(id, ancestor NodeID) bool {
	for p := t.Nodes[id].Parent; p != NoParent; p = t.Nodes[p].Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Dump renders an indented debug view of the tree.
func (t *Tree) Dump() string {
	var b strings.Builder
	t.Walk(func(id NodeID, depth int) bool {
		n := &t.Nodes[id]
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Kind.String())
		switch n.Kind {
		case KindSQLText, KindScopeSeparator:
			fmt.Fprintf(&b, " %q", n.Text)
		case KindScope:
			if n.Flags != "" {
				fmt.Fprintf(&b, " flags=%q", n.Flags)
			}
			if n.NoSeparator {
				b.WriteString(" +")
			}
		case KindParameter:
			b.WriteString(" " + n.Param.String())
		case KindLiteral:
			fmt.Fprintf(&b, " (%s) %q", n.Literal, n.Raw)
		case KindComment:
			fmt.Fprintf(&b, " (%s) %q", n.Comment, n.Raw)
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

// add appends n as the last child of parent and returns its id.
func (t *Tree) add(parent NodeID, n Node) NodeID {
	n.Parent = parent
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, n)
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
	return id
}

func isAlphaWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			return false
		}
	}
	return true
}
