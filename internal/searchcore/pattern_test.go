package searchcore

import "testing"

func TestIsStructuralSelectionRule(t *testing.T) {
	cases := []struct {
		find string
		want bool
	}{
		{"foo", false},
		{"(\\w+)@(\\w+)", false},
		{"$FN($$$ARGS)", true},
		{"$lowercase", false}, // lowercase first letter: not a metavariable
		{"$$$Args", true},
		{"plain $ text", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsStructural(tc.find); got != tc.want {
			t.Errorf("IsStructural(%q) = %v, want %v", tc.find, got, tc.want)
		}
	}
}

func TestCompileTextual(t *testing.T) {
	p, err := Compile("foo", false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.Variant != VariantTextual {
		t.Fatalf("expected VariantTextual, got %v", p.Variant)
	}
}

func TestCompileTextualInvalidRegex(t *testing.T) {
	if _, err := Compile("(unclosed", false); err == nil {
		t.Fatal("expected a CompileError for an unclosed group")
	}
}

// S1 from spec.md §8: two literal matches in one file, non-overlapping.
func TestSearchTextualS1(t *testing.T) {
	p, err := Compile("foo", false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	matches, err := p.Search("a.txt", []byte("foo bar foo"), nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Start != 0 || matches[0].End != 3 {
		t.Errorf("match 0 = [%d,%d), want [0,3)", matches[0].Start, matches[0].End)
	}
	if matches[1].Start != 8 || matches[1].End != 11 {
		t.Errorf("match 1 = [%d,%d), want [8,11)", matches[1].Start, matches[1].End)
	}
}

// S3 from spec.md §8: zero-length matches advance by one code point.
func TestSearchTextualZeroLengthAdvance(t *testing.T) {
	p, err := Compile("a*", false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	matches, err := p.Search("d.txt", []byte("bb"), nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []Span{{0, 0}, {1, 1}, {2, 2}}
	if len(matches) != len(want) {
		t.Fatalf("expected %d matches, got %d: %+v", len(want), len(matches), matches)
	}
	for i, w := range want {
		if matches[i].Start != w.Start || matches[i].End != w.End {
			t.Errorf("match %d = [%d,%d), want [%d,%d)", i, matches[i].Start, matches[i].End, w.Start, w.End)
		}
	}
}

// S4 from spec.md §8: ignore-case toggled on matches both cases.
func TestSearchTextualIgnoreCase(t *testing.T) {
	p, err := Compile("Hello", true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	matches, err := p.Search("e.txt", []byte("hello HELLO"), nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestSearchTextualCancellation(t *testing.T) {
	p, err := Compile("a", false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	called := false
	cancelled := func() bool {
		called = true
		return true
	}
	content := make([]byte, 10000)
	for i := range content {
		content[i] = 'a'
	}
	matches, err := p.Search("big.txt", content, cancelled)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !called {
		t.Fatal("cancelled callback was never polled")
	}
	if len(matches) >= len(content) {
		t.Fatalf("expected cancellation to cut the scan short, got %d matches", len(matches))
	}
}
