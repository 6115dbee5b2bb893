package fragment

import (
	"fmt"
	"strings"
)

// Fill replaces every {n} placeholder in template with names[n]. Braces
// that do not enclose a decimal index are copied unchanged. A placeholder
// without a matching name is an error.
func Fill(template string, names []string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		idx, width, ok := placeholderAt(template, i)
		if !ok {
			b.WriteByte(template[i])
			i++
			continue
		}
		if idx >= len(names) {
			return "", fmt.Errorf("placeholder {%d} has no value (%d supplied)", idx, len(names))
		}
		b.WriteString(names[idx])
		i += width
	}
	return b.String(), nil
}

// Count returns one more than the highest placeholder index in template, or
// zero when the template has none.
func Count(template string) int {
	n := 0
	for i := 0; i < len(template); i++ {
		if idx, _, ok := placeholderAt(template, i); ok && idx+1 > n {
			n = idx + 1
		}
	}
	return n
}

func placeholderAt(s string, i int) (idx, width int, ok bool) {
	if s[i] != '{' {
		return 0, 0, false
	}
	j := i + 1
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		idx = idx*10 + int(s[j]-'0')
		j++
	}
	if j == i+1 || j >= len(s) || s[j] != '}' {
		return 0, 0, false
	}
	return idx, j + 1 - i, true
}
