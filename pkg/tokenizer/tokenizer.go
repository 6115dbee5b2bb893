// Package tokenizer exposes the script tokenizer for tooling: editors,
// linters and the sqlscope CLI's tokens command.
//
// Most programs never need it; sqlscope.Engine tokenizes and caches scripts
// on its own.
package tokenizer

import (
	"strings"

	"github.com/pthm/sqlscope/internal/markup"
)

type (
	// Tree is a parsed script. Node 0 is the root.
	Tree = markup.Tree
	// Node is one element of a Tree.
	Node = markup.Node
	// NodeID addresses a node in a Tree.
	NodeID = markup.NodeID
	// Kind identifies the variant of a Node.
	Kind = markup.Kind
	// Param describes a parameter placeholder.
	Param = markup.Param
	// Error reports a malformed script.
	Error = markup.Error
	// Peer pairs a compound parameter with a parameter its scope repeats.
	Peer = markup.Peer
)

const (
	KindRoot           = markup.KindRoot
	KindSQLText        = markup.KindSQLText
	KindScope          = markup.KindScope
	KindParameter      = markup.KindParameter
	KindLiteral        = markup.KindLiteral
	KindComment        = markup.KindComment
	KindScopeSeparator = markup.KindScopeSeparator

	// NoParent is the parent of the root node.
	NoParent = markup.NoParent
)

// ErrSyntax is matched by every *Error.
var ErrSyntax = markup.ErrSyntax

// Tokenize parses script. Set hints to recognize Oracle or Postgres quoting.
func Tokenize(script string, hints markup.Hints) (*Tree, error) {
	return markup.Tokenize(script, hints)
}

// Parameters returns the distinct parameters of a tree in order of first
// appearance. Names compare case-insensitively, so [id] and :ID are
// reported once.
func Parameters(t *Tree) []Param {
	seen := make(map[string]bool)
	var out []Param
	for _, id := range t.Parameters() {
		p := t.Node(id).Param
		key := strings.ToLower(p.Name + "." + p.Member)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
