package uitest

import (
	"fmt"
	"strings"
)

// selector is the small CSS subset the sweep's defaults use: comma
// groups of descendant chains of tag.class[attr="value"] compounds.
type selector [][]compound

type compound struct {
	tag     string
	classes []string
	attrs   map[string]string
}

func parseSelector(s string) (selector, error) {
	var sel selector
	for _, group := range splitOutside(s, ',') {
		var chain []compound
		for _, part := range splitOutside(group, ' ') {
			c, err := parseCompound(part)
			if err != nil {
				return nil, fmt.Errorf("selector %q: %w", s, err)
			}
			chain = append(chain, c)
		}
		if len(chain) == 0 {
			return nil, fmt.Errorf("selector %q: empty group", s)
		}
		sel = append(sel, chain)
	}
	return sel, nil
}

// splitOutside splits on sep when not inside brackets or quotes and drops
// empty pieces.
func splitOutside(s string, sep rune) []string {
	var out []string
	var cur strings.Builder
	depth, quoted := 0, false
	flush := func() {
		if p := strings.TrimSpace(cur.String()); p != "" {
			out = append(out, p)
		}
		cur.Reset()
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '[' && !quoted:
			depth++
		case r == ']' && !quoted:
			depth--
		case r == sep && depth == 0 && !quoted:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

func parseCompound(s string) (compound, error) {
	c := compound{attrs: map[string]string{}}
	for len(s) > 0 {
		switch s[0] {
		case '.':
			end := strings.IndexAny(s[1:], ".[")
			if end < 0 {
				end = len(s) - 1
			}
			c.classes = append(c.classes, s[1:end+1])
			s = s[end+1:]
		case '[':
			end := strings.Index(s, "]")
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute in %q", s)
			}
			name, value, ok := strings.Cut(s[1:end], "=")
			if !ok {
				return c, fmt.Errorf("attribute without value in %q", s)
			}
			c.attrs[name] = strings.Trim(value, `"'`)
			s = s[end+1:]
		default:
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}
			c.tag = s[:end]
			s = s[end:]
		}
	}
	return c, nil
}

func (c compound) match(e *Element) bool {
	if c.tag != "" && c.tag != "*" && c.tag != e.Tag {
		return false
	}
	for _, cl := range c.classes {
		if !e.hasClass(cl) {
			return false
		}
	}
	for k, v := range c.attrs {
		if e.Attrs[k] != v {
			return false
		}
	}
	return true
}

func (s selector) match(e *Element, _ *Element) bool {
	for _, chain := range s {
		if matchChain(chain, e) {
			return true
		}
	}
	return false
}

func matchChain(chain []compound, e *Element) bool {
	last := len(chain) - 1
	if !chain[last].match(e) {
		return false
	}
	i := last - 1
	for p := e.parent; p != nil && i >= 0; p = p.parent {
		if chain[i].match(p) {
			i--
		}
	}
	return i < 0
}
