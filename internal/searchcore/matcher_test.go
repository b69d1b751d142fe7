package searchcore

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestMatchFileBasic(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.txt", []byte("foo bar foo"))

	p, err := Compile("foo", false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tmpl := CompileReplacement("FOO")

	result := MatchFile(path, p, tmpl, 0, 1, nil)
	if result.Err != nil {
		t.Fatalf("MatchFile error: %v", result.Err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	for _, m := range result.Matches {
		if m.Replacement != "FOO" {
			t.Errorf("replacement = %q, want FOO", m.Replacement)
		}
	}
}

func TestMatchFileSkipsTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "big.txt", []byte("0123456789"))

	p, _ := Compile("1", false)
	tmpl := CompileReplacement("x")

	result := MatchFile(path, p, tmpl, 5, 1, nil)
	if result.Skip != SkipTooLarge {
		t.Fatalf("expected SkipTooLarge, got %q (err=%v)", result.Skip, result.Err)
	}
}

func TestMatchFileSkipsBinary(t *testing.T) {
	dir := t.TempDir()
	content := append([]byte("prefix"), 0x00, 'x')
	path := writeTempFile(t, dir, "bin.dat", content)

	p, _ := Compile("x", false)
	tmpl := CompileReplacement("y")

	result := MatchFile(path, p, tmpl, 0, 1, nil)
	if result.Skip != SkipBinary {
		t.Fatalf("expected SkipBinary, got %q (err=%v)", result.Skip, result.Err)
	}
}

func TestMatchFileNoMatchesOtherFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "b.txt", []byte("nothing"))

	p, _ := Compile("foo", false)
	tmpl := CompileReplacement("FOO")

	result := MatchFile(path, p, tmpl, 0, 1, nil)
	if result.Err != nil {
		t.Fatalf("MatchFile error: %v", result.Err)
	}
	if len(result.Matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(result.Matches))
	}
}

func TestMatchFileReadError(t *testing.T) {
	p, _ := Compile("foo", false)
	tmpl := CompileReplacement("FOO")

	result := MatchFile(filepath.Join(t.TempDir(), "missing.txt"), p, tmpl, 0, 1, nil)
	if result.Err == nil {
		t.Fatal("expected a read error for a missing file")
	}
}
