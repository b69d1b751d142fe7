// Package searchcore is the live search/replace engine: the pipeline that
// turns each keystroke into a fresh, ordered set of preview results drawn
// from many files. It is the sole focus of spec.md; everything else in this
// repository (config, CLI, TUI) is an external collaborator that consumes
// the interfaces defined here.
package searchcore

// Focus names which InputState field currently receives typed characters.
type Focus int

const (
	FocusFind Focus = iota
	FocusReplace
)

// PendingPair tracks an auto-inserted closing bracket so that typing the
// matching closer consumes the keystroke instead of duplicating it, and so
// that deleting the opener also deletes the closer (spec.md §4.4 auto-pairs).
type PendingPair struct {
	// Pos is the byte offset, within Find or Replace (whichever has focus at
	// the time of insertion), of the auto-inserted closing rune.
	Pos int
	// Closer is the rune that was auto-inserted and is still sitting
	// unmodified at Pos.
	Closer rune
}

// InputState is the evolving user query (spec.md §3). It is single-writer:
// only the Engine's owning goroutine mutates it.
type InputState struct {
	Find        string
	Replace     string
	IgnoreCase  bool
	Focus       Focus
	Cursor      int // byte offset into whichever field Focus names
	Pending     *PendingPair
	Generation  uint64
}

// FieldValue returns the text of the currently focused field.
func (s *InputState) FieldValue() string {
	if s.Focus == FocusReplace {
		return s.Replace
	}
	return s.Find
}

func (s *InputState) setFieldValue(v string) {
	if s.Focus == FocusReplace {
		s.Replace = v
	} else {
		s.Find = v
	}
}

// Match is a single match within one file at one generation (spec.md §3).
type Match struct {
	Start, End int // byte span [Start, End) in the file's captured content
	// Groups holds numbered capture groups; Groups[0] is the whole match.
	Groups []Span
	// Named holds named capture groups, for structural metavariables and
	// textual `(?P<name>...)` groups alike.
	Named map[string]Span
	// NamedMulti holds structural "spread" bindings ($$$ARGS): an ordered
	// list of subtree spans bound to one metavariable name.
	NamedMulti map[string][]Span
	// Replacement is the fully-expanded replacement text for this match,
	// precomputed by FileMatcher against this match's captures.
	Replacement string
}

// Span is a byte range; a Span with Start == -1 means "group did not
// participate in this match".
type Span struct {
	Start, End int
}

func (s Span) Valid() bool { return s.Start >= 0 }

func (s Span) Text(content []byte) string {
	if !s.Valid() {
		return ""
	}
	return string(content[s.Start:s.End])
}

// SkipReason explains why a file produced no matches without being an error.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipTooLarge    SkipReason = "too_large"
	SkipBinary      SkipReason = "binary"
	SkipUnparseable SkipReason = "unparseable" // structural mode, invalid UTF-8 or no grammar for the file's extension
)

// FileResult is the per-file outcome of one generation's scan (spec.md §3).
type FileResult struct {
	Path       string
	Matches    []Match
	Generation uint64
	Skip       SkipReason
	Err        error
	// ContentHash is an xxhash of the file bytes as captured at scan time,
	// used by the Committer as a cheap pre-check before the exact byte
	// comparison spec.md §4.5 requires (grounded on the teacher's FastHash
	// use in internal/core/file_content_store.go).
	ContentHash uint64
	// Content is the exact bytes scanned, retained only long enough for the
	// Committer to splice replacements against the recorded spans.
	Content []byte
}

// ResultSet is the aggregation for a single generation (spec.md §3).
type ResultSet struct {
	Generation uint64
	Files      []FileResult
	// Done is true once every file in the generation's enumeration has
	// produced a FileResult (or the job was cancelled).
	Done bool
}
