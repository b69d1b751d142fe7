// Package lasrerr defines the error taxonomy shared by the search, match,
// and commit pipelines: a kind plus enough context to show the user why a
// file was skipped or a pattern failed to compile, without panicking the
// process for anything short of a startup failure.
package lasrerr

import (
	"fmt"
	"time"
)

// Kind classifies an error without requiring callers to type-switch on a
// concrete struct.
type Kind string

const (
	KindCompile Kind = "compile"
	KindRead    Kind = "file_read"
	KindSkipped Kind = "file_skipped"
	KindCommit  Kind = "commit"
	KindConfig  Kind = "config"
	KindFatal   Kind = "fatal"
)

// Error is the single error type used across lasr. Op names the operation
// that failed ("compile_pattern", "read_file", "rename"); Path is set when
// the error is tied to a specific file.
type Error struct {
	Kind      Kind
	Op        string
	Path      string
	Err       error
	Timestamp time.Time
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err, Timestamp: time.Now()}
}

func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CompileError carries the human-readable diagnostic from the underlying
// pattern engine (regexp or tree-sitter), per spec §4.1.
func CompileError(op string, err error) *Error {
	return New(KindCompile, op, err)
}

// Fatal marks an error as unrecoverable: the process should report it and
// exit non-zero rather than continue (§7, "cannot allocate worker pool,
// cannot obtain terminal").
func Fatal(op string, err error) *Error {
	return New(KindFatal, op, err)
}
