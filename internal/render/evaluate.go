// Package render evaluates a markup tree into final SQL text.
//
// Evaluation is a pure function of the tree and the resolver: each parameter
// is resolved exactly once, in document order, and the tree is then rendered
// bottom-up. A scope survives only when at least one of its direct child
// scopes or parameters resolved; surviving sibling scopes separated only by
// whitespace are joined with AND (or OR under an '@' scope).
package render

import (
	"strings"

	"github.com/pthm/sqlscope/internal/markup"
)

// Resolution is the rendered SQL for one parameter. Compound parameters
// carry one text per repetition of their enclosing scope.
type Resolution struct {
	Texts []string
}

// Resolver supplies the SQL for a parameter. Returning false declines the
// parameter: it renders empty (bind-variable parameters keep their source
// text) and does not validate its scope.
type Resolver func(p markup.Param) (Resolution, bool, error)

// Evaluate renders tree using resolve for every parameter.
func Evaluate(tree *markup.Tree, resolve Resolver) (string, error) {
	e := &evaluator{
		tree:     tree,
		resolved: make(map[markup.NodeID]Resolution),
	}
	for _, id := range tree.Parameters() {
		res, ok, err := resolve(tree.Node(id).Param)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if len(res.Texts) == 0 {
			res.Texts = []string{""}
		}
		e.resolved[id] = res
	}

	out, _ := e.body(tree.Root())
	return out, nil
}

type evaluator struct {
	tree     *markup.Tree
	resolved map[markup.NodeID]Resolution
}

// body renders the content of a scope (or the root), repeating it once per
// value of a direct compound child parameter.
func (e *evaluator) body(id markup.NodeID) (string, bool) {
	n := e.tree.Node(id)

	reps, sep := 1, ""
	for _, c := range n.Children {
		child := e.tree.Node(c)
		if child.Kind != markup.KindParameter || !child.Param.IsCompound() {
			continue
		}
		if res, ok := e.resolved[c]; ok && len(res.Texts) > reps {
			reps, sep = len(res.Texts), child.Param.Separator()
		}
	}

	if reps == 1 {
		return e.content(n, 0)
	}
	parts := make([]string, reps)
	valid := false
	for i := range parts {
		var v bool
		parts[i], v = e.content(n, i)
		valid = valid || v
	}
	return strings.Join(parts, sep), valid
}

// content renders the children of n for repetition rep.
func (e *evaluator) content(n *markup.Node, rep int) (string, bool) {
	var out output
	keyword := "AND"
	if n.HasFlag('@') {
		keyword = "OR"
	}

	var (
		valid      bool
		chainValid bool // a surviving scope ends the output so far
		haveSep    bool
		sepText    string
	)
	breakChain := func() {
		chainValid, haveSep = false, false
	}

	for _, cid := range n.Children {
		c := e.tree.Node(cid)
		switch c.Kind {
		case markup.KindSQLText:
			out.WriteString(c.Text)
			breakChain()

		case markup.KindLiteral:
			out.WriteString(c.Raw)
			breakChain()

		case markup.KindComment:
			switch c.Comment {
			case markup.CommentEngine:
				continue
			case markup.CommentLine:
				out.WriteLineComment(c.Raw)
			default:
				out.WriteString(c.Raw)
			}
			breakChain()

		case markup.KindParameter:
			res, ok := e.resolved[cid]
			if !ok {
				if c.Param.Form == markup.FormBind {
					out.WriteString(c.Raw)
				}
				breakChain()
				continue
			}
			out.WriteString(res.Texts[min(rep, len(res.Texts)-1)])
			valid = true
			breakChain()

		case markup.KindScopeSeparator:
			if chainValid && !haveSep {
				haveSep, sepText = true, c.Text
			}

		case markup.KindScope:
			s, ok := e.body(cid)
			if !ok {
				out.Elide()
				continue
			}
			if chainValid && haveSep {
				out.WriteString(joinText(sepText, keyword, c.NoSeparator))
			}
			out.WriteString(s)
			valid, chainValid, haveSep = true, true, false

		case markup.KindRoot:
			// The root is never a child.
		}
	}
	return out.String(), valid
}

// joinText renders the separator between two surviving scopes. A separator
// spanning lines keeps its layout; otherwise it collapses to one space.
func joinText(ws, keyword string, blank bool) string {
	prefix := " "
	if strings.IndexByte(ws, '\n') >= 0 {
		prefix = ws
	}
	if blank {
		return prefix
	}
	return prefix + keyword + " "
}
