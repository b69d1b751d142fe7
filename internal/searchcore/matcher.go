package searchcore

import (
	"bytes"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lasr/internal/lasrerr"
)

// binarySniffWindow is how many leading bytes are inspected for a NUL byte
// to decide whether a file is binary (spec.md §4.2).
const binarySniffWindow = 8 * 1024

// MatchFile reads path once, skips it if binary or over maxBytes, and
// otherwise runs pattern against its content, expanding every match's
// replacement text against tmpl. It never mutates the file (spec.md §4.2).
// cancelled, if non-nil, is polled periodically during long scans so a
// worker can abandon a file when the generation it belongs to goes stale
// (spec.md §4.3).
func MatchFile(path string, pattern *Pattern, tmpl *ReplacementTemplate, maxBytes int64, generation uint64, cancelled func() bool) FileResult {
	result := FileResult{Path: path, Generation: generation}

	info, err := os.Stat(path)
	if err != nil {
		result.Err = lasrerr.New(lasrerr.KindRead, "stat", err).WithPath(path)
		return result
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		result.Skip = SkipTooLarge
		return result
	}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Err = lasrerr.New(lasrerr.KindRead, "read", err).WithPath(path)
		return result
	}

	if isBinary(content) {
		result.Skip = SkipBinary
		return result
	}

	if !pattern.SupportsFile(path, content) {
		result.Skip = SkipUnparseable
		return result
	}

	matches, err := pattern.Search(path, content, cancelled)
	if err != nil {
		result.Err = lasrerr.New(lasrerr.KindRead, "match", err).WithPath(path)
		return result
	}

	for i := range matches {
		matches[i].Replacement = tmpl.Expand(&matches[i], content)
	}

	result.Matches = matches
	result.Content = content
	result.ContentHash = xxhash.Sum64(content)
	return result
}

func isBinary(content []byte) bool {
	window := content
	if len(window) > binarySniffWindow {
		window = window[:binarySniffWindow]
	}
	return bytes.IndexByte(window, 0) >= 0
}
