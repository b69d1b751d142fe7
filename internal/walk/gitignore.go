package walk

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ignoreSet holds the parsed rules from one .gitignore file. Adapted from
// the teacher's config.GitignoreParser, trimmed to the matching rules a
// single-root, single-pass file walk needs.
type ignoreSet struct {
	rules []ignoreRule
}

type ignoreRule struct {
	pattern   string
	negate    bool
	directory bool
	absolute  bool
	compiled  *regexp.Regexp // set only for patterns containing '*', '?', or '['
}

// loadIgnoreSet reads rootDir/.gitignore. A missing file yields an empty,
// harmless ignoreSet rather than an error.
func loadIgnoreSet(rootDir string) *ignoreSet {
	set := &ignoreSet{}
	f, err := os.Open(filepath.Join(rootDir, ".gitignore"))
	if err != nil {
		return set
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.rules = append(set.rules, parseIgnoreRule(line))
	}
	return set
}

func parseIgnoreRule(line string) ignoreRule {
	var r ignoreRule
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.absolute = true
		line = line[1:]
	}
	r.pattern = line
	if strings.ContainsAny(line, "*?[") {
		r.compiled = regexp.MustCompile(globToRegex(line))
	}
	return r
}

func globToRegex(pattern string) string {
	re := regexp.QuoteMeta(pattern)
	re = strings.ReplaceAll(re, `\*`, `.*`)
	re = strings.ReplaceAll(re, `\?`, `.`)
	re = strings.ReplaceAll(re, `\[`, `[`)
	re = strings.ReplaceAll(re, `\]`, `]`)
	return "^" + re + "$"
}

// shouldIgnore reports whether path (slash-separated, relative to the root
// the set was loaded from) should be excluded. Later rules override
// earlier ones, and a "!" rule un-ignores a path an earlier rule matched —
// the same last-rule-wins semantics git itself uses.
func (s *ignoreSet) shouldIgnore(path string, isDir bool) bool {
	ignored := false
	for _, r := range s.rules {
		if matchesRule(r, path, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

func matchesRule(r ignoreRule, path string, isDir bool) bool {
	if r.directory {
		if isDir {
			return matchesOne(r, path)
		}
		return strings.HasPrefix(path, r.pattern+"/")
	}
	if r.absolute {
		return matchesOne(r, path)
	}
	if matchesOne(r, path) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if matchesOne(r, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func matchesOne(r ignoreRule, path string) bool {
	if r.compiled != nil {
		return r.compiled.MatchString(path)
	}
	if r.pattern == path {
		return true
	}
	matched, _ := filepath.Match(r.pattern, path)
	return matched
}
