package searchcore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/standardbeagle/lasr/internal/tui/action"
)

func countingEnumerator(files []string, calls *int64) FileEnumerator {
	return func() ([]string, error) {
		atomic.AddInt64(calls, 1)
		return files, nil
	}
}

// Invariant 5 (spec.md): an empty find is a no-op commit producing zero
// matches, and Confirm works even before any user input.
func TestEngineConfirmIdempotentOnEmptyFind(t *testing.T) {
	var calls int64
	e := NewEngine(EngineConfig{DebounceWindow: time.Millisecond}, countingEnumerator(nil, &calls))

	rs, err := e.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(rs.Files) != 0 {
		t.Fatalf("expected zero files for an empty find, got %d", len(rs.Files))
	}
}

// S6 from spec.md §8: several rapid edits within the debounce window produce
// exactly one SearchJob; construction with an empty find runs none.
func TestEngineDebounceCoalescesRapidEdits(t *testing.T) {
	var calls int64
	e := NewEngine(EngineConfig{DebounceWindow: 30 * time.Millisecond}, countingEnumerator([]string{}, &calls))

	// Construction with an empty find compiles nothing and never enumerates.
	if got := atomic.LoadInt64(&calls); got != 0 {
		t.Fatalf("expected 0 enumerate calls after construction with an empty find, got %d", got)
	}

	e.InsertRune('f')
	e.InsertRune('o')
	e.InsertRune('o')

	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("expected exactly 1 enumerate call for three coalesced edits, got %d", got)
	}

	rs, err := e.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if rs.Generation != 3 {
		t.Fatalf("expected generation 3 after three inserts, got %d", rs.Generation)
	}
}

// Invariant 6 (spec.md): deleting the opener of a still-untouched
// auto-inserted pair deletes the closer symmetrically, restoring the
// original input exactly.
func TestEngineAutoPairSymmetry(t *testing.T) {
	var calls int64
	e := NewEngine(EngineConfig{DebounceWindow: time.Millisecond, AutoPairs: true}, countingEnumerator([]string{}, &calls))

	e.InsertRune('(')
	st := e.State()
	if st.Find != "()" {
		t.Fatalf("Find = %q, want \"()\"", st.Find)
	}
	if st.Cursor != 1 {
		t.Fatalf("Cursor = %d, want 1", st.Cursor)
	}
	if st.Pending == nil {
		t.Fatal("expected a PendingPair after auto-inserting a closer")
	}

	e.Apply(action.DeleteCharBackward)
	st = e.State()
	if st.Find != "" {
		t.Fatalf("Find after symmetric delete = %q, want \"\"", st.Find)
	}
	if st.Cursor != 0 {
		t.Fatalf("Cursor after symmetric delete = %d, want 0", st.Cursor)
	}
}

// Typing the auto-inserted closer consumes the keystroke instead of
// duplicating it.
func TestEngineAutoPairConsumesTypedCloser(t *testing.T) {
	var calls int64
	e := NewEngine(EngineConfig{DebounceWindow: time.Millisecond, AutoPairs: true}, countingEnumerator([]string{}, &calls))

	e.InsertRune('(')
	e.InsertRune(')')
	st := e.State()
	if st.Find != "()" {
		t.Fatalf("Find = %q, want \"()\"", st.Find)
	}
	if st.Cursor != 2 {
		t.Fatalf("Cursor = %d, want 2", st.Cursor)
	}
}

// Confirm refuses while a compile error is active, per the resolution of
// spec.md §9's open question on invalid-pattern handling.
func TestEngineConfirmRefusesOnCompileError(t *testing.T) {
	var calls int64
	e := NewEngine(EngineConfig{DebounceWindow: time.Millisecond}, countingEnumerator([]string{}, &calls))

	for _, r := range "(unclosed" {
		e.InsertRune(r)
	}
	time.Sleep(20 * time.Millisecond)

	if e.CompileError() == nil {
		t.Fatal("expected a compile error for an unclosed group")
	}

	if _, err := e.Confirm(); err == nil {
		t.Fatal("expected Confirm to refuse while a compile error is active")
	}
}

// Generation strictly increases with every input-affecting action and is
// never observed to go backwards by a consumer (invariant 1).
func TestEngineGenerationMonotonic(t *testing.T) {
	var calls int64
	e := NewEngine(EngineConfig{DebounceWindow: time.Millisecond}, countingEnumerator([]string{}, &calls))

	last := e.State().Generation
	for _, r := range "abc" {
		e.InsertRune(r)
		got := e.State().Generation
		if got <= last {
			t.Fatalf("generation did not increase: %d -> %d", last, got)
		}
		last = got
	}
	e.Exit()
}
