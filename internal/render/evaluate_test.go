package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlscope/internal/markup"
)

// resolveMap resolves parameters by name from a fixed table.
func resolveMap(m map[string][]string) Resolver {
	return func(p markup.Param) (Resolution, bool, error) {
		texts, ok := m[p.Name]
		if !ok {
			return Resolution{}, false, nil
		}
		return Resolution{Texts: texts}, true, nil
	}
}

func evaluate(t *testing.T, script string, m map[string][]string) string {
	t.Helper()
	tree, err := markup.Tokenize(script, markup.HintAll)
	require.NoError(t, err)
	out, err := Evaluate(tree, resolveMap(m))
	require.NoError(t, err)
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		script string
		params map[string][]string
		want   string
	}{
		{
			name:   "no markup",
			script: "SELECT * FROM T",
			want:   "SELECT * FROM T",
		},
		{
			name:   "scope elided",
			script: "SELECT * FROM T {WHERE {COL1 [c1]}}",
			want:   "SELECT * FROM T",
		},
		{
			name:   "scope kept",
			script: "SELECT * FROM T {WHERE {COL1 [c1]}}",
			params: map[string][]string{"c1": {"= :pc1_1"}},
			want:   "SELECT * FROM T WHERE COL1 = :pc1_1",
		},
		{
			name:   "and join",
			script: "{WHERE {A [x]} {B [y]}}",
			params: map[string][]string{"x": {"= 1"}, "y": {"= 2"}},
			want:   "WHERE A = 1 AND B = 2",
		},
		{
			name:   "or join",
			script: "@{WHERE {A [x]} {B [y]}}",
			params: map[string][]string{"x": {"= 1"}, "y": {"= 2"}},
			want:   "WHERE A = 1 OR B = 2",
		},
		{
			name:   "adjacent scopes still joined",
			script: "{WHERE {A [x]}{B [y]}}",
			params: map[string][]string{"x": {"= 1"}, "y": {"= 2"}},
			want:   "WHERE A = 1 AND B = 2",
		},
		{
			name:   "first of three missing",
			script: "{WHERE {A [x]} {B [y]} {C [z]}}",
			params: map[string][]string{"y": {"= 2"}, "z": {"= 3"}},
			want:   "WHERE B = 2 AND C = 3",
		},
		{
			name:   "middle of three missing",
			script: "{WHERE {A [x]} {B [y]} {C [z]}}",
			params: map[string][]string{"x": {"= 1"}, "z": {"= 3"}},
			want:   "WHERE A = 1 AND C = 3",
		},
		{
			name:   "last of three missing",
			script: "{WHERE {A [x]} {B [y]} {C [z]}}",
			params: map[string][]string{"x": {"= 1"}, "y": {"= 2"}},
			want:   "WHERE A = 1 AND B = 2",
		},
		{
			name:   "blank join",
			script: "{ORDER BY {a [x]} +{, b [y]}}",
			params: map[string][]string{"x": {"ASC"}, "y": {"DESC"}},
			want:   "ORDER BY a ASC , b DESC",
		},
		{
			name:   "text between scopes breaks the chain",
			script: "{WHERE {A [x]} AND B = 1 {C [y]}}",
			params: map[string][]string{"x": {"= 1"}, "y": {"= 2"}},
			want:   "WHERE A = 1 AND B = 1 C = 2",
		},
		{
			name:   "nested or group",
			script: "{WHERE {A [a]} @{({B [b]} {C [c]})}}",
			params: map[string][]string{"a": {"= 1"}, "b": {"= 2"}, "c": {"= 3"}},
			want:   "WHERE A = 1 AND (B = 2 OR C = 3)",
		},
		{
			name:   "multi-line separator keeps layout",
			script: "SELECT *\nFROM T\n{WHERE {A [x]}\n  {B [y]}}",
			params: map[string][]string{"x": {"= 1"}, "y": {"= 2"}},
			want:   "SELECT *\nFROM T\nWHERE A = 1\n  AND B = 2",
		},
		{
			name:   "elided scope between lines leaves one newline",
			script: "SELECT *\nFROM T\n{WHERE A [x]}\nORDER BY 1",
			want:   "SELECT *\nFROM T\nORDER BY 1",
		},
		{
			name:   "elided scope between words leaves one space",
			script: "SELECT a {, b [x]}  FROM T",
			want:   "SELECT a FROM T",
		},
		{
			name:   "engine comment removed, sql comment kept",
			script: "SELECT {* note *}1 /* keep */",
			want:   "SELECT 1 /* keep */",
		},
		{
			name:   "literals are opaque",
			script: "SELECT '{x} [y]', \"[z]\", q'[{w}]', $t$ :v $t$",
			want:   "SELECT '{x} [y]', \"[z]\", q'[{w}]', $t$ :v $t$",
		},
		{
			name:   "unresolved bind parameter keeps its text",
			script: "SELECT * FROM T WHERE id = :id",
			want:   "SELECT * FROM T WHERE id = :id",
		},
		{
			name:   "unresolved bind parameter does not validate its scope",
			script: "SELECT 1 {WHERE id = :id}",
			want:   "SELECT 1",
		},
		{
			name:   "resolved bind parameter",
			script: "SELECT 1 {WHERE id = :id}",
			params: map[string][]string{"id": {":pid_1"}},
			want:   "SELECT 1 WHERE id = :pid_1",
		},
		{
			name:   "compound parameter repeats its scope",
			script: "SELECT * FROM T {WHERE @{(A = [ids.Item|OR])}}",
			params: map[string][]string{"ids": {"1", "2", "3"}},
			want:   "SELECT * FROM T WHERE (A = 1) OR (A = 2) OR (A = 3)",
		},
		{
			name:   "compound parameter default separator",
			script: "INSERT INTO T VALUES {([v.Item])}",
			params: map[string][]string{"v": {"1", "2"}},
			want:   "INSERT INTO T VALUES (1), (2)",
		},
		{
			name:   "compound parameter with one value",
			script: "{A = [ids.Item|OR]}",
			params: map[string][]string{"ids": {"7"}},
			want:   "A = 7",
		},
		{
			name:   "line comment keeps its newline before an elided scope",
			script: "SELECT * FROM t {WHERE a [a] -- note\n{AND b [b]}} ORDER BY x",
			params: map[string][]string{"a": {"= :pa_1"}},
			want:   "SELECT * FROM t WHERE a = :pa_1 -- note\n ORDER BY x",
		},
		{
			name:   "line comment before a rendered scope",
			script: "SELECT * FROM t {WHERE a [a] -- note\n{AND b [b]}} ORDER BY x",
			params: map[string][]string{"a": {"= 1"}, "b": {"= 2"}},
			want:   "SELECT * FROM t WHERE a = 1 -- note\nAND b = 2 ORDER BY x",
		},
		{
			name:   "line comment at the end of a scope",
			script: "SELECT 1 {WHERE a [a] -- note\n{ [b]}}",
			params: map[string][]string{"a": {"= 1"}},
			want:   "SELECT 1 WHERE a = 1 -- note\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluate(t, tt.script, tt.params))
		})
	}
}

func TestEvaluate_ResolvesOncePerParameterInOrder(t *testing.T) {
	tree, err := markup.Tokenize("{A [a]} {B [b]} {C [a]}", markup.HintNone)
	require.NoError(t, err)

	var seen []string
	_, err = Evaluate(tree, func(p markup.Param) (Resolution, bool, error) {
		seen = append(seen, p.Name)
		return Resolution{Texts: []string{"x"}}, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, seen)
}

func TestEvaluate_ResolverError(t *testing.T) {
	tree, err := markup.Tokenize("{A [a]}", markup.HintNone)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = Evaluate(tree, func(markup.Param) (Resolution, bool, error) {
		return Resolution{}, false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestEvaluate_Deterministic(t *testing.T) {
	script := "SELECT *\nFROM T\n{WHERE {A [a]}\n  @{({B [b]} {C [c]})}}"
	params := map[string][]string{"a": {"= 1"}, "c": {"= 3"}}
	assert.Equal(t, evaluate(t, script, params), evaluate(t, script, params))
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "", collapse("  ", true))
	assert.Equal(t, "", collapse("", false))
	assert.Equal(t, " ", collapse(" \t ", false))
	assert.Equal(t, "\n", collapse(" \n  ", false))
}
