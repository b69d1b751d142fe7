// Pattern compilation: selects and builds one of two backends (textual
// regexp or structural tree-sitter) per the fixed rule in spec.md §3/§4.1.
package searchcore

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/standardbeagle/lasr/internal/lasrerr"
)

// Variant names which backend a compiled Pattern uses.
type Variant int

const (
	VariantTextual Variant = iota
	VariantStructural
)

// Pattern is a parsed search artifact (spec.md §3). Once built it is
// immutable and safe to share by reference across worker goroutines.
type Pattern struct {
	Variant Variant
	Raw     string

	// Textual backend state.
	re *regexp.Regexp

	// Structural backend state.
	structural *structuralPattern
}

// IsStructural reports whether find selects the structural backend: it
// contains at least one metavariable token $X… or $$$X… whose first letter
// is uppercase. This rule is total and is computed before compilation
// (spec.md §3).
func IsStructural(find string) bool {
	runes := []rune(find)
	for i := 0; i < len(runes); {
		if runes[i] != '$' {
			i++
			continue
		}
		k := 0
		for i+k < len(runes) && runes[i+k] == '$' {
			k++
		}
		if (k == 1 || k == 3) && i+k < len(runes) && isUpperLetter(runes[i+k]) {
			return true
		}
		i += k
	}
	return false
}

func isUpperLetter(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// Compile selects and builds a Pattern per the rule in spec.md §3/§4.1.
func Compile(find string, ignoreCase bool) (*Pattern, error) {
	if IsStructural(find) {
		sp, err := compileStructural(find, ignoreCase)
		if err != nil {
			return nil, lasrerr.CompileError("compile_structural_pattern", err)
		}
		return &Pattern{Variant: VariantStructural, Raw: find, structural: sp}, nil
	}

	expr := find
	if ignoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, lasrerr.CompileError("compile_regexp", err)
	}
	return &Pattern{Variant: VariantTextual, Raw: find, re: re}, nil
}

// SupportsFile reports whether this pattern can be evaluated against the
// given file content (used to implement "invalid UTF-8 skipped in
// structural mode" from spec.md §4.1).
func (p *Pattern) SupportsFile(path string, content []byte) bool {
	if p.Variant == VariantTextual {
		return true
	}
	if !utf8.Valid(content) {
		return false
	}
	return p.structural.languageFor(path) != nil
}

// Search returns matches in ascending start order, non-overlapping, per
// spec.md §3/§8. Zero-length matches advance by one code point after
// emitting (spec.md §4.1). cancelled is polled periodically so a long file
// can be abandoned mid-scan (spec.md §4.3); it may be nil.
func (p *Pattern) Search(path string, content []byte, cancelled func() bool) ([]Match, error) {
	switch p.Variant {
	case VariantTextual:
		return p.searchTextual(content, cancelled), nil
	case VariantStructural:
		return p.structural.search(path, content, cancelled)
	default:
		return nil, fmt.Errorf("unknown pattern variant %d", p.Variant)
	}
}

// cancelCheckInterval is how many loop iterations elapse between polls of
// the cancellation flag while scanning a single file (spec.md §4.3/§5).
const cancelCheckInterval = 256

func (p *Pattern) searchTextual(content []byte, cancelled func() bool) []Match {
	var matches []Match
	names := p.re.SubexpNames()
	pos := 0
	for iter := 0; pos <= len(content); iter++ {
		if cancelled != nil && iter%cancelCheckInterval == 0 && cancelled() {
			break
		}
		loc := p.re.FindSubmatchIndex(content[pos:])
		if loc == nil {
			break
		}
		// Offset every index by pos to make it absolute.
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		start, end := loc[0], loc[1]
		m := Match{Start: start, End: end}
		m.Groups = make([]Span, len(loc)/2)
		m.Named = make(map[string]Span)
		for i := 0; i < len(loc)/2; i++ {
			s, e := loc[2*i], loc[2*i+1]
			if s < 0 {
				m.Groups[i] = Span{Start: -1}
			} else {
				m.Groups[i] = Span{Start: s, End: e}
			}
			if i < len(names) && names[i] != "" && s >= 0 {
				m.Named[names[i]] = Span{Start: s, End: e}
			}
		}
		matches = append(matches, m)

		if end > start {
			pos = end
		} else {
			// Zero-length match: advance by one code point so we never
			// loop (spec.md §4.1, §8 scenario S3).
			if end >= len(content) {
				break
			}
			_, size := utf8.DecodeRune(content[end:])
			pos = end + size
		}
	}
	return matches
}
