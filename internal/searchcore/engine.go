package searchcore

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/standardbeagle/lasr/internal/lasrerr"
	"github.com/standardbeagle/lasr/internal/tui/action"
)

// defaultDebounceWindow is the delay armed after an input-affecting action
// before a new SearchJob is scheduled (spec.md §4.4).
const defaultDebounceWindow = 50 * time.Millisecond

var autoPairCloser = map[rune]rune{'(': ')', '[': ']', '{': '}'}

// FileEnumerator produces the ordered candidate file list for a generation
// (spec.md §6). It is supplied by the caller (internal/walk in this repo)
// so searchcore stays free of filesystem-walking concerns.
type FileEnumerator func() ([]string, error)

// EngineConfig is the startup struct an Engine is built from (spec.md §6
// ConfigSource, minus the fields — theme, key map — that belong to the TUI
// rather than the core).
type EngineConfig struct {
	Threads           int
	MaxFileBytes      int64
	AutoPairs         bool
	IgnoreCaseInitial bool
	DebounceWindow    time.Duration
}

// Engine owns InputState, the compiled Pattern/Template, and at most one
// in-flight SearchJob (spec.md §4.4). All mutation happens under e.mu; the
// one unsynchronized fan-out is the per-job drain goroutine, which only
// ever reads job-local state and reports through e.mu-guarded setters.
type Engine struct {
	cfg       EngineConfig
	enumerate FileEnumerator

	mu    sync.Mutex
	state InputState

	pattern  *Pattern
	template *ReplacementTemplate

	compiledFind       string
	compiledIgnoreCase bool
	compiledReplace    string
	replaceCompiled    bool

	compileErr error

	job     *SearchJob
	jobDone chan struct{}
	current ResultSet

	committing bool
	exited     bool

	debounceTimer *time.Timer

	updates chan ResultSet
}

// NewEngine builds an Engine and runs its initial (empty-query) scan
// synchronously, so CompileError/Confirm/Subscribe all observe a consistent
// generation-0 ResultSet from the moment construction returns.
func NewEngine(cfg EngineConfig, enumerate FileEnumerator) *Engine {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = defaultDebounceWindow
	}
	e := &Engine{
		cfg:       cfg,
		enumerate: enumerate,
		updates:   make(chan ResultSet, 1),
	}
	e.state.Focus = FocusFind
	e.state.IgnoreCase = cfg.IgnoreCaseInitial

	e.mu.Lock()
	e.startJobLocked()
	e.mu.Unlock()
	return e
}

// Subscribe returns the stream of incremental ResultSet updates for the
// latest generation only (spec.md §4.4). Only the most recent undelivered
// update is ever buffered: a slow consumer sees the newest state, not a
// backlog of stale ones.
func (e *Engine) Subscribe() <-chan ResultSet { return e.updates }

// CompileError reports the current Pattern/Template compile failure, if
// any, so the UI can render it without crashing (spec.md §7).
func (e *Engine) CompileError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compileErr
}

// State returns a copy of the current InputState for rendering.
func (e *Engine) State() InputState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Apply mutates InputState per a, per the closed action set of spec.md
// §4.4, excluding Confirm, Exit, and InsertChar: those are parameterized or
// have caller-visible return values, so the UI layer calls Confirm,
// Exit, and InsertRune directly instead of routing them through Apply.
func (e *Engine) Apply(a action.Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.committing || e.exited {
		return
	}

	switch a {
	case action.Noop, action.Confirm, action.Exit, action.InsertChar:
		return

	case action.ToggleSearchReplace:
		if e.state.Focus == FocusFind {
			e.state.Focus = FocusReplace
		} else {
			e.state.Focus = FocusFind
		}
		e.state.Cursor = len(e.state.FieldValue())
		e.state.Pending = nil

	case action.ToggleIgnoreCase:
		e.state.IgnoreCase = !e.state.IgnoreCase
		e.bumpAndScheduleLocked()

	case action.CursorLeft:
		if e.state.Cursor > 0 {
			_, size := utf8.DecodeLastRuneInString(e.state.FieldValue()[:e.state.Cursor])
			e.state.Cursor -= size
		}

	case action.CursorRight:
		v := e.state.FieldValue()
		if e.state.Cursor < len(v) {
			_, size := utf8.DecodeRuneInString(v[e.state.Cursor:])
			e.state.Cursor += size
		}

	case action.CursorHome:
		e.state.Cursor = 0

	case action.CursorEnd:
		e.state.Cursor = len(e.state.FieldValue())

	case action.DeleteChar:
		v := e.state.FieldValue()
		if e.state.Cursor < len(v) {
			_, size := utf8.DecodeRuneInString(v[e.state.Cursor:])
			e.state.setFieldValue(v[:e.state.Cursor] + v[e.state.Cursor+size:])
			e.state.Pending = nil
			e.bumpAndScheduleLocked()
		}

	case action.DeleteCharBackward:
		e.deleteCharBackwardLocked()

	case action.DeleteWord:
		v := e.state.FieldValue()
		if e.state.Cursor > 0 {
			newValue, newCursor := deleteWordBackward(v, e.state.Cursor)
			e.state.setFieldValue(newValue)
			e.state.Cursor = newCursor
			e.state.Pending = nil
			e.bumpAndScheduleLocked()
		}

	case action.DeleteToEndOfLine:
		v := e.state.FieldValue()
		if e.state.Cursor < len(v) {
			e.state.setFieldValue(v[:e.state.Cursor])
			e.state.Pending = nil
			e.bumpAndScheduleLocked()
		}

	case action.DeleteLine:
		if e.state.FieldValue() != "" {
			e.state.setFieldValue("")
			e.state.Cursor = 0
			e.state.Pending = nil
			e.bumpAndScheduleLocked()
		}
	}
}

// deleteCharBackwardLocked implements backward delete and its auto-pair
// symmetry: deleting the opener of an still-untouched auto-inserted pair
// also deletes the closer (spec.md §4.4, invariant 6).
func (e *Engine) deleteCharBackwardLocked() {
	v := e.state.FieldValue()
	cursor := e.state.Cursor
	if cursor == 0 {
		return
	}
	_, openSize := utf8.DecodeLastRuneInString(v[:cursor])

	if p := e.state.Pending; p != nil && p.Pos == cursor {
		closeSize := utf8.RuneLen(p.Closer)
		e.state.setFieldValue(v[:cursor-openSize] + v[cursor+closeSize:])
		e.state.Cursor = cursor - openSize
		e.state.Pending = nil
	} else {
		e.state.setFieldValue(v[:cursor-openSize] + v[cursor:])
		e.state.Cursor = cursor - openSize
		e.state.Pending = nil
	}
	e.bumpAndScheduleLocked()
}

// deleteWordBackward implements the word-boundary semantics of spec.md
// §4.4: skip trailing whitespace, then delete the contiguous non-whitespace
// run before it.
func deleteWordBackward(value string, cursor int) (string, int) {
	runes := []rune(value[:cursor])
	i := len(runes)
	for i > 0 && unicode.IsSpace(runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	newCursor := len(string(runes[:i]))
	return value[:newCursor] + value[cursor:], newCursor
}

// InsertRune inserts a printable character at the cursor, applying
// auto-pairs when enabled (spec.md §4.4). The UI layer calls this directly
// for printable key events rather than routing through Apply, since
// action.InsertChar carries a payload Action's plain string can't.
func (e *Engine) InsertRune(r rune) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.committing || e.exited {
		return
	}

	v := e.state.FieldValue()
	cursor := e.state.Cursor

	if p := e.state.Pending; p != nil && p.Pos == cursor && p.Closer == r {
		// Typing the auto-inserted closer consumes the keystroke instead of
		// duplicating it.
		e.state.Cursor += utf8.RuneLen(r)
		e.state.Pending = nil
		return
	}

	v = v[:cursor] + string(r) + v[cursor:]
	e.state.setFieldValue(v)
	e.state.Cursor += utf8.RuneLen(r)
	e.state.Pending = nil

	if e.cfg.AutoPairs {
		if closer, ok := autoPairCloser[r]; ok {
			v2 := e.state.FieldValue()
			v2 = v2[:e.state.Cursor] + string(closer) + v2[e.state.Cursor:]
			e.state.setFieldValue(v2)
			e.state.Pending = &PendingPair{Pos: e.state.Cursor, Closer: closer}
		}
	}

	e.bumpAndScheduleLocked()
}

// bumpAndScheduleLocked increments the generation and (re)arms the debounce
// timer, resetting it if one is already pending (spec.md §4.4). Must be
// called with e.mu held.
func (e *Engine) bumpAndScheduleLocked() {
	e.state.Generation++
	gen := e.state.Generation
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
	}
	e.debounceTimer = time.AfterFunc(e.cfg.DebounceWindow, func() { e.fire(gen) })
}

// fire runs on the debounce timer's own goroutine once the window elapses
// without being reset.
func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.state.Generation {
		return // superseded by a later edit before the timer fired
	}
	e.startJobLocked()
}

// startJobLocked cancels the current job, recompiles Pattern/Template if
// their source text changed, and starts a new SearchJob for the current
// generation (spec.md §4.4 step 2-3). Must be called with e.mu held.
func (e *Engine) startJobLocked() {
	if e.job != nil {
		e.job.Cancel()
	}

	if e.state.Find != e.compiledFind || e.state.IgnoreCase != e.compiledIgnoreCase {
		e.compiledFind = e.state.Find
		e.compiledIgnoreCase = e.state.IgnoreCase
		if e.state.Find == "" {
			e.pattern = nil
			e.compileErr = nil
		} else if p, err := Compile(e.state.Find, e.state.IgnoreCase); err != nil {
			e.pattern = nil
			e.compileErr = err
		} else {
			e.pattern = p
			e.compileErr = nil
		}
	}

	if !e.replaceCompiled || e.compiledReplace != e.state.Replace {
		e.compiledReplace = e.state.Replace
		e.replaceCompiled = true
		e.template = CompileReplacement(e.state.Replace)
	}

	gen := e.state.Generation

	if e.pattern == nil || e.compileErr != nil {
		e.job = nil
		done := make(chan struct{})
		close(done)
		e.jobDone = done
		e.current = ResultSet{Generation: gen, Done: true}
		e.publishLocked(e.current)
		return
	}

	files, err := e.enumerate()
	if err != nil {
		e.job = nil
		e.compileErr = lasrerr.New(lasrerr.KindFatal, "enumerate_files", err)
		done := make(chan struct{})
		close(done)
		e.jobDone = done
		e.current = ResultSet{Generation: gen, Done: true}
		e.publishLocked(e.current)
		return
	}

	job := NewSearchJob(e.pattern, e.template, files, e.cfg.MaxFileBytes, gen, e.cfg.Threads)
	e.job = job
	done := make(chan struct{})
	e.jobDone = done
	e.current = ResultSet{Generation: gen, Files: make([]FileResult, 0, len(files))}
	ch := job.Run(context.Background())
	go e.drain(job, ch, done)
}

// drain reads job's result stream to completion regardless of whether the
// generation it belongs to is still current, so workers are never left
// blocked against an abandoned reader. It publishes snapshots only while
// the job remains current (spec.md §4.4/§5, invariant 1).
func (e *Engine) drain(job *SearchJob, ch <-chan FileResult, done chan struct{}) {
	files := make([]FileResult, 0, len(job.Files))
	for fr := range ch {
		files = append(files, fr)
		e.mu.Lock()
		if e.state.Generation == job.Generation {
			e.current = ResultSet{Generation: job.Generation, Files: cloneFileResults(files)}
			e.publishLocked(e.current)
		}
		e.mu.Unlock()
	}

	e.mu.Lock()
	if e.state.Generation == job.Generation {
		e.current = ResultSet{Generation: job.Generation, Files: cloneFileResults(files), Done: true}
		e.publishLocked(e.current)
	}
	e.mu.Unlock()
	close(done)
}

func cloneFileResults(files []FileResult) []FileResult {
	out := make([]FileResult, len(files))
	copy(out, files)
	return out
}

// publishLocked makes rs the sole pending value on the updates channel,
// dropping whatever stale value was there. Must be called with e.mu held.
func (e *Engine) publishLocked(rs ResultSet) {
	select {
	case <-e.updates:
	default:
	}
	select {
	case e.updates <- rs:
	default:
	}
}

// Confirm freezes the input, ensures the in-flight job (or an immediately
// fired debounce) has drained, and returns the final ResultSet for the
// caller to hand to a Committer. It refuses while a CompileError is active,
// per the recommended resolution of the open question in spec.md §9.
func (e *Engine) Confirm() (*ResultSet, error) {
	e.mu.Lock()
	if e.exited {
		e.mu.Unlock()
		return nil, fmt.Errorf("confirm: engine already exited")
	}
	if e.compileErr != nil {
		err := e.compileErr
		e.mu.Unlock()
		return nil, err
	}
	e.committing = true

	var fireNow uint64
	needFire := false
	if e.debounceTimer != nil && e.debounceTimer.Stop() {
		needFire = true
		fireNow = e.state.Generation
	}
	e.mu.Unlock()

	if needFire {
		e.fire(fireNow)
	}

	e.mu.Lock()
	done := e.jobDone
	e.mu.Unlock()

	if done != nil {
		<-done
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.compileErr != nil {
		return nil, e.compileErr
	}
	rs := e.current
	return &rs, nil
}

// Exit cancels the in-flight job and returns control with no commit
// (spec.md §4.4). It does not wait for the job to drain: the drain
// goroutine completes independently and leaks nothing, since it keeps
// reading its own channel to closure regardless of engine state.
func (e *Engine) Exit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exited {
		return
	}
	e.exited = true
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
	}
	if e.job != nil {
		e.job.Cancel()
	}
}
