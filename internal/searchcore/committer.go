package searchcore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lasr/internal/lasrerr"
)

// Report is the aggregate outcome of one commit (spec.md §4.5).
type Report struct {
	FilesChanged int
	FilesSkipped int
	Errors       []error
}

// Commit applies the replacements recorded in rs to disk, per file:
// re-read, verify unchanged, splice, write-temp-then-rename. Each file is
// isolated — a failure on one never stops the others (spec.md §4.5).
func Commit(rs *ResultSet) Report {
	var report Report
	for _, fr := range rs.Files {
		if fr.Err != nil || fr.Skip != SkipNone || len(fr.Matches) == 0 {
			continue
		}
		if err := commitFile(fr); err != nil {
			report.FilesSkipped++
			report.Errors = append(report.Errors, err)
			continue
		}
		report.FilesChanged++
	}
	return report
}

func commitFile(fr FileResult) error {
	info, err := os.Stat(fr.Path)
	if err != nil {
		return lasrerr.New(lasrerr.KindCommit, "stat", err).WithPath(fr.Path)
	}

	current, err := os.ReadFile(fr.Path)
	if err != nil {
		return lasrerr.New(lasrerr.KindCommit, "read", err).WithPath(fr.Path)
	}

	if xxhash.Sum64(current) != fr.ContentHash || !bytes.Equal(current, fr.Content) {
		return lasrerr.New(lasrerr.KindCommit, "content_changed", fmt.Errorf("file changed since scan")).WithPath(fr.Path)
	}

	newContent := spliceReplacements(current, fr.Matches)

	dir := filepath.Dir(fr.Path)
	tmp, err := os.CreateTemp(dir, ".lasr-*.tmp")
	if err != nil {
		return lasrerr.New(lasrerr.KindCommit, "create_temp", err).WithPath(fr.Path)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(newContent); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return lasrerr.New(lasrerr.KindCommit, "write_temp", err).WithPath(fr.Path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return lasrerr.New(lasrerr.KindCommit, "sync_temp", err).WithPath(fr.Path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return lasrerr.New(lasrerr.KindCommit, "close_temp", err).WithPath(fr.Path)
	}

	if err := os.Chmod(tmpPath, info.Mode()); err != nil {
		os.Remove(tmpPath)
		return lasrerr.New(lasrerr.KindCommit, "chmod_temp", err).WithPath(fr.Path)
	}

	if err := os.Rename(tmpPath, fr.Path); err != nil {
		os.Remove(tmpPath)
		return lasrerr.New(lasrerr.KindCommit, "rename", err).WithPath(fr.Path)
	}

	return nil
}

// spliceReplacements builds the new file content by replacing each match's
// span with its precomputed replacement text, processed left-to-right over
// the original bytes (spec.md §4.5 step 3). matches is assumed
// non-overlapping and ascending, the invariant FileMatcher/Pattern.Search
// guarantee.
func spliceReplacements(original []byte, matches []Match) []byte {
	var out bytes.Buffer
	out.Grow(len(original))
	pos := 0
	for _, m := range matches {
		out.Write(original[pos:m.Start])
		out.WriteString(m.Replacement)
		pos = m.End
	}
	out.Write(original[pos:])
	return out.Bytes()
}
