package searchcore

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// metaInfo describes one metavariable token found in a structural find
// string: $Name binds a single subtree; $$$Name binds a run of sibling
// subtrees (spec.md §3 GLOSSARY).
type metaInfo struct {
	name   string
	spread bool
}

// structuralPattern is the compiled form of a structural find string. The
// masked pattern text (metavariables replaced by synthetic placeholder
// identifiers) is parsed lazily, once per language actually encountered,
// since the same find string may be evaluated against files in several
// languages during one generation.
type structuralPattern struct {
	masked     string
	ignoreCase bool
	placeholders map[string]metaInfo

	mu     sync.Mutex
	byLang map[string]*compiledFragment // keyed by languageDef.name
}

type compiledFragment struct {
	tree   *tree_sitter.Tree
	source []byte
	root   tree_sitter.Node
	ok     bool
}

const placeholderPrefix = "_lasr_mv"

func compileStructural(find string, ignoreCase bool) (*structuralPattern, error) {
	masked, placeholders := maskMetavariables(find)
	if len(placeholders) == 0 {
		return nil, fmt.Errorf("structural pattern %q selected but no metavariables found", find)
	}
	return &structuralPattern{
		masked:       masked,
		ignoreCase:   ignoreCase,
		placeholders: placeholders,
		byLang:       make(map[string]*compiledFragment),
	}, nil
}

// maskMetavariables replaces every $Name / $$$Name token with a unique
// placeholder identifier that parses as an ordinary identifier in every
// supported grammar, and records what each placeholder means.
func maskMetavariables(find string) (string, map[string]metaInfo) {
	placeholders := make(map[string]metaInfo)
	var b strings.Builder
	runes := []rune(find)
	n := 0
	for i := 0; i < len(runes); {
		if runes[i] != '$' {
			b.WriteRune(runes[i])
			i++
			continue
		}
		k := 0
		for i+k < len(runes) && runes[i+k] == '$' {
			k++
		}
		if (k == 1 || k == 3) && i+k < len(runes) && isUpperLetter(runes[i+k]) {
			j := i + k
			start := j
			for j < len(runes) && isRefRune(runes[j]) {
				j++
			}
			name := string(runes[start:j])
			placeholder := fmt.Sprintf("%s%d", placeholderPrefix, n)
			n++
			placeholders[placeholder] = metaInfo{name: name, spread: k == 3}
			b.WriteString(placeholder)
			i = j
			continue
		}
		// Not a metavariable token: copy the dollar run through literally.
		for x := 0; x < k; x++ {
			b.WriteByte('$')
		}
		i += k
	}
	return b.String(), placeholders
}

func (sp *structuralPattern) languageFor(path string) *languageDef {
	return languageForExt(strings.ToLower(filepath.Ext(path)))
}

func (sp *structuralPattern) fragmentFor(ld *languageDef) (*compiledFragment, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if f, ok := sp.byLang[ld.name]; ok {
		if !f.ok {
			return nil, fmt.Errorf("pattern does not parse as valid %s syntax", ld.name)
		}
		return f, nil
	}

	lang := ld.load()
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		f := &compiledFragment{ok: false}
		sp.byLang[ld.name] = f
		return nil, fmt.Errorf("set language %s: %w", ld.name, err)
	}

	wrapped, offset := ld.wrap(sp.masked)
	source := []byte(wrapped)
	tree := parser.Parse(source, nil)
	if tree == nil {
		f := &compiledFragment{ok: false}
		sp.byLang[ld.name] = f
		return nil, fmt.Errorf("%s: failed to parse pattern fragment", ld.name)
	}

	root := findFragmentRoot(tree.RootNode(), uint(offset), uint(offset+len(sp.masked)))
	f := &compiledFragment{tree: tree, source: source, root: root, ok: true}
	sp.byLang[ld.name] = f
	return f, nil
}

// findFragmentRoot finds the smallest node in the wrapped fragment's tree
// whose byte span starts at or before `start` and ends at or after `end` —
// i.e. the deepest node that fully contains the inserted pattern text. This
// is the comby-style "extract the hole" step that lets lasr match a bare
// expression without requiring its own top-level grammar rule.
func findFragmentRoot(n tree_sitter.Node, start, end uint) tree_sitter.Node {
	best := n
	for {
		advanced := false
		cc := best.ChildCount()
		for i := uint(0); i < cc; i++ {
			child := best.Child(i)
			if child.StartByte() <= start && child.EndByte() >= end {
				best = child
				advanced = true
				break
			}
		}
		if !advanced {
			return best
		}
	}
}

// bindings accumulates metavariable captures during one match attempt.
type bindings struct {
	named      map[string]Span
	namedMulti map[string][]Span
}

func newBindings() *bindings {
	return &bindings{named: make(map[string]Span), namedMulti: make(map[string][]Span)}
}

// search walks the candidate file's AST and returns every non-overlapping,
// left-to-right match of the pattern, per spec.md §3/§8. cancelled is
// polled periodically so a large file can be abandoned mid-walk (spec.md
// §4.3); it may be nil.
func (sp *structuralPattern) search(path string, content []byte, cancelled func() bool) ([]Match, error) {
	ld := sp.languageFor(path)
	if ld == nil {
		return nil, nil
	}
	frag, err := sp.fragmentFor(ld)
	if err != nil {
		return nil, err
	}

	lang := ld.load()
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}

	var matches []Match
	lastEnd := -1
	visited := 0
	walkPreOrder(tree.RootNode(), func(cand tree_sitter.Node) bool {
		visited++
		if cancelled != nil && visited%cancelCheckInterval == 0 && cancelled() {
			return false
		}
		start, end := int(cand.StartByte()), int(cand.EndByte())
		if start < lastEnd {
			return true // descend; an earlier sibling already consumed this range
		}
		b := newBindings()
		if sp.matchNode(frag.root, frag.source, cand, content, b) {
			m := Match{Start: start, End: end, Groups: []Span{{Start: start, End: end}}}
			m.Named = b.named
			m.NamedMulti = b.namedMulti
			matches = append(matches, m)
			lastEnd = end
			return false // don't descend into a node we just matched
		}
		return true
	})
	return matches, nil
}

// walkPreOrder visits nodes in document order (source order), matching the
// "first match wins, scan resumes from its end" rule shared with the
// textual backend. visit returns false to skip descending into a node's
// children (used once a match is found there, or cancellation fires).
func walkPreOrder(n tree_sitter.Node, visit func(tree_sitter.Node) bool) {
	if !visit(n) {
		return
	}
	cc := n.ChildCount()
	for i := uint(0); i < cc; i++ {
		walkPreOrder(n.Child(i), visit)
	}
}

// matchNode compares pat and cand over NAMED children only: punctuation
// tokens (commas, parens, braces) carry no match-relevant shape of their
// own and would otherwise force every pattern to spell out exact
// delimiter counts, defeating the point of a structural matcher.
func (sp *structuralPattern) matchNode(pat tree_sitter.Node, patSrc []byte, cand tree_sitter.Node, candSrc []byte, b *bindings) bool {
	if meta, ok := sp.metaFor(pat, patSrc); ok {
		return sp.bind(meta, cand, candSrc, b)
	}

	if pat.Kind() != cand.Kind() {
		return false
	}

	patCount := pat.NamedChildCount()
	candCount := cand.NamedChildCount()

	if patCount == 0 {
		// Leaf node (or a node with only punctuation children): compare
		// literal text.
		patText := string(patSrc[pat.StartByte():pat.EndByte()])
		candText := string(candSrc[cand.StartByte():cand.EndByte()])
		if sp.ignoreCase && isIdentifierKind(pat.Kind()) {
			return strings.EqualFold(patText, candText)
		}
		return patText == candText
	}

	// A single spread child at this level matches any number (incl. zero)
	// of the candidate's named children, per spec.md §3 GLOSSARY
	// "metavariable".
	if patCount == 1 {
		if meta, ok := sp.metaFor(pat.NamedChild(0), patSrc); ok && meta.spread {
			spans := make([]Span, 0, candCount)
			for i := uint(0); i < candCount; i++ {
				c := cand.NamedChild(i)
				spans = append(spans, Span{Start: int(c.StartByte()), End: int(c.EndByte())})
			}
			b.namedMulti[meta.name] = append(b.namedMulti[meta.name], spans...)
			return true
		}
	}

	if patCount != candCount {
		return false
	}
	for i := uint(0); i < patCount; i++ {
		if !sp.matchNode(pat.NamedChild(i), patSrc, cand.NamedChild(i), candSrc, b) {
			return false
		}
	}
	return true
}

func (sp *structuralPattern) metaFor(n tree_sitter.Node, src []byte) (metaInfo, bool) {
	if n.NamedChildCount() != 0 {
		return metaInfo{}, false
	}
	text := string(src[n.StartByte():n.EndByte()])
	meta, ok := sp.placeholders[text]
	return meta, ok
}

func (sp *structuralPattern) bind(meta metaInfo, cand tree_sitter.Node, candSrc []byte, b *bindings) bool {
	span := Span{Start: int(cand.StartByte()), End: int(cand.EndByte())}
	if meta.spread {
		b.namedMulti[meta.name] = append(b.namedMulti[meta.name], span)
		return true
	}
	if existing, ok := b.named[meta.name]; ok {
		// Same metavariable bound twice in one pattern: require equal text
		// (consistent capture, matching comby/ast-grep semantics).
		existingText := string(candSrc[existing.Start:existing.End])
		candText := string(candSrc[span.Start:span.End])
		return existingText == candText
	}
	b.named[meta.name] = span
	return true
}

func isIdentifierKind(kind string) bool {
	switch kind {
	case "identifier", "field_identifier", "type_identifier", "property_identifier", "name":
		return true
	default:
		return false
	}
}
