package sqlscope

import "strings"

// Built-in [Global.key] entries.
var defaultGlobals = map[string]string{
	"true":  "1 = 1",
	"false": "1 = 0",
	"empty": "",
}

// globals is a case-insensitive lookup table for [Global.key] parameters.
type globals map[string]string

func newGlobals(extra map[string]string) globals {
	g := make(globals, len(defaultGlobals)+len(extra))
	for k, v := range defaultGlobals {
		g[k] = v
	}
	for k, v := range extra {
		g[strings.ToLower(k)] = v
	}
	return g
}

func (g globals) lookup(key string) (string, bool) {
	v, ok := g[strings.ToLower(key)]
	return v, ok
}
