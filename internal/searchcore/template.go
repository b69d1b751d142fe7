package searchcore

import "strings"

// ReplacementTemplate is the parsed form of InputState.Replace (spec.md §3):
// an ordered list of segments, each either literal text or a back-reference.
type ReplacementTemplate struct {
	segments []replSegment
}

type replSegmentKind int

const (
	segLiteral replSegmentKind = iota
	segNumbered
	segNamed
	segMultiNamed // $$$name — structural-only spread capture
)

type replSegment struct {
	kind    replSegmentKind
	literal string
	index   int
	name    string
}

// CompileReplacement parses a replace string. It always succeeds: an unknown
// group reference simply expands to empty at match time (spec.md §4.1).
func CompileReplacement(replace string) *ReplacementTemplate {
	t := &ReplacementTemplate{}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, replSegment{kind: segLiteral, literal: lit.String()})
			lit.Reset()
		}
	}

	runes := []rune(replace)
	i := 0
	n := len(runes)
	for i < n {
		if runes[i] != '$' {
			lit.WriteRune(runes[i])
			i++
			continue
		}
		// Literal "$$" -> single "$".
		if i+1 < n && runes[i+1] == '$' {
			if i+2 < n && runes[i+2] == '$' {
				// "$$$name" spread reference.
				flush()
				j := i + 3
				name, consumed, braced := readRef(runes[j:])
				if !braced && name == "" {
					lit.WriteString("$$$")
					i = j
					continue
				}
				t.segments = append(t.segments, replSegment{kind: segMultiNamed, name: name})
				i = j + consumed
				continue
			}
			lit.WriteByte('$')
			i += 2
			continue
		}

		flush()
		j := i + 1
		name, consumed, _ := readRef(runes[j:])
		if name == "" {
			// Lone trailing "$" with nothing recognizable after it: literal.
			lit.WriteByte('$')
			i = j
			continue
		}
		if isAllDigits(name) {
			idx := 0
			for _, r := range name {
				idx = idx*10 + int(r-'0')
			}
			t.segments = append(t.segments, replSegment{kind: segNumbered, index: idx})
		} else {
			t.segments = append(t.segments, replSegment{kind: segNamed, name: name})
		}
		i = j + consumed
	}
	flush()
	return t
}

// readRef reads either a brace-delimited {...} reference or a bare run of
// identifier/digit characters immediately following a $ sigil. It returns
// the reference name/number text, how many runes were consumed from s, and
// whether braces were used (braces disambiguate from trailing identifier
// characters, per spec.md §3).
func readRef(s []rune) (name string, consumed int, braced bool) {
	if len(s) > 0 && s[0] == '{' {
		for i := 1; i < len(s); i++ {
			if s[i] == '}' {
				return string(s[1:i]), i + 1, true
			}
		}
		// Unterminated brace: treat as literal, consume nothing meaningful.
		return "", 0, true
	}
	i := 0
	for i < len(s) && isRefRune(s[i]) {
		i++
	}
	return string(s[:i]), i, false
}

func isRefRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Expand builds the replacement text for one match against its captures.
// Missing or undefined groups expand to empty (spec.md §4.2).
func (t *ReplacementTemplate) Expand(m *Match, content []byte) string {
	var b strings.Builder
	for _, seg := range t.segments {
		switch seg.kind {
		case segLiteral:
			b.WriteString(seg.literal)
		case segNumbered:
			if seg.index >= 0 && seg.index < len(m.Groups) && m.Groups[seg.index].Valid() {
				b.WriteString(m.Groups[seg.index].Text(content))
			}
		case segNamed:
			if sp, ok := m.Named[seg.name]; ok && sp.Valid() {
				b.WriteString(sp.Text(content))
			}
		case segMultiNamed:
			if spans, ok := m.NamedMulti[seg.name]; ok && len(spans) > 0 {
				// Re-emit the contiguous source slice spanning the whole
				// capture rather than rejoining pieces with a fixed
				// separator, so original spacing/punctuation between
				// spread elements (e.g. "1,2" vs "1, 2") survives
				// untouched into the replacement (spec.md §8 scenario S5).
				first, last := spans[0], spans[len(spans)-1]
				b.WriteString(string(content[first.Start:last.End]))
			}
		}
	}
	return b.String()
}
