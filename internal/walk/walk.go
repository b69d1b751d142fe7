// Package walk is the FileEnumerator collaborator (spec.md §6): it expands
// the CLI's positional paths into the ordered candidate file list the
// searchcore engine scans each generation. Grounded on the teacher's
// internal/indexing FileScanner (gitignore + doublestar include/exclude
// filtering) and internal/config/gitignore.go, adapted from an indexing
// pipeline stage into a single recursive-walk-to-slice function.
package walk

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures one enumeration (spec.md §6 ConfigSource collaborator
// plus the CLI's positional paths).
type Options struct {
	// Roots are the positional paths to scan; a root may be a file or a
	// directory. Defaults to {"."} when empty.
	Roots []string
	// Include, if non-empty, restricts results to paths matching at least
	// one doublestar glob (matched against the path relative to its root).
	Include []string
	// Exclude drops any path matching at least one doublestar glob, checked
	// after Include and regardless of gitignore.
	Exclude []string
	// RespectGitignore, when true, skips paths ignored by each directory's
	// own .gitignore as the walk descends into it.
	RespectGitignore bool
}

// Enumerate walks opts.Roots in order and returns the ordered candidate
// file list. Order is stable for a fixed filesystem state and Options,
// since each directory's entries are visited in the lexical order
// fs.WalkDir guarantees and roots are walked in the order given (spec.md
// §6, invariant 3).
func Enumerate(opts Options) ([]string, error) {
	roots := opts.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var out []string
	for _, root := range roots {
		files, err := enumerateRoot(root, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func enumerateRoot(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if matchesFilters(root, root, opts) {
			return []string{root}, nil
		}
		return nil, nil
	}

	ignoreByDir := make(map[string]*ignoreSet)
	ignoreFor := func(dir string) *ignoreSet {
		if s, ok := ignoreByDir[dir]; ok {
			return s
		}
		s := loadIgnoreSet(dir)
		ignoreByDir[dir] = s
		return s
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if d.IsDir() && name == ".git" {
			return filepath.SkipDir
		}

		if opts.RespectGitignore {
			dir := filepath.Dir(path)
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil {
				relSlash := filepath.ToSlash(rel)
				if ignoreFor(dir).shouldIgnore(filepath.ToSlash(name), d.IsDir()) ||
					ignoreFor(root).shouldIgnore(relSlash, d.IsDir()) {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
		}

		if d.IsDir() {
			return nil
		}

		if matchesFilters(root, path, opts) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesFilters(root, path string, opts Options) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	if len(opts.Include) > 0 {
		included := false
		for _, pattern := range opts.Include {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, pattern := range opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}

	return true
}
