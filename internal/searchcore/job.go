package searchcore

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// sinkBacklog bounds how many results the reorder buffer may hold that are
// still waiting on an earlier, not-yet-finished file: when a file at the
// head of the enumeration is slow, every worker that races ahead of it must
// eventually block rather than pile up unbounded pending results in memory.
// This is the "fixed ring" spec.md §4.3 describes and §5 counts as one of
// the three suspension points in the pipeline.
const sinkBacklog = 64

// SearchJob runs one generation's scan across an enumerated file list with a
// worker pool, then re-serializes results back into enumeration order before
// handing them to the caller. Grounded on the teacher's
// internal/indexing/master_index.go task/result channel pipeline,
// generalized from index-building to match-scanning and given an explicit
// ordered, bounded sink (spec.md §4.3).
type SearchJob struct {
	Pattern    *Pattern
	Template   *ReplacementTemplate
	Files      []string
	MaxBytes   int64
	Generation uint64
	Workers    int

	cancelled atomic.Bool
	sink      atomic.Pointer[orderedSink]
}

// NewSearchJob builds a job ready to Run. workers <= 0 selects
// runtime.NumCPU(), matching Config.Threads' zero-value meaning (spec.md §6).
func NewSearchJob(pattern *Pattern, tmpl *ReplacementTemplate, files []string, maxBytes int64, generation uint64, workers int) *SearchJob {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &SearchJob{
		Pattern:    pattern,
		Template:   tmpl,
		Files:      files,
		MaxBytes:   maxBytes,
		Generation: generation,
		Workers:    workers,
	}
}

// Cancel marks the job stale. Workers check this before dequeuing their next
// file and periodically while scanning a large one (spec.md §4.3); Run's
// output channel closes once every in-flight worker has observed it. A
// cancellation can leave a gap in the result sequence (a skipped file's
// index never arrives), which would otherwise strand any worker blocked in
// orderedSink.submit waiting on that gap forever, so Cancel also wakes the
// sink's waiters so they can re-check isCancelled and stop waiting.
func (j *SearchJob) Cancel() {
	j.cancelled.Store(true)
	if s := j.sink.Load(); s != nil {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (j *SearchJob) isCancelled() bool { return j.cancelled.Load() }

type indexedTask struct {
	idx  int
	path string
}

// orderedSink re-serializes out-of-order, index-tagged results back into
// ascending index order, emitting each one to out as soon as it becomes the
// new head. It holds at most capacity results that have arrived ahead of
// the head; a submit that would grow the buffer past capacity blocks the
// calling worker until the head advances, bounding the sink's memory to
// capacity in-flight FileResults (each of which retains its file's full Content)
// regardless of how far a slow head file falls behind (spec.md §4.3, §5).
type orderedSink struct {
	mu          sync.Mutex
	cond        *sync.Cond
	pending     map[int]FileResult
	next        int
	capacity    int
	out         chan<- FileResult
	isCancelled func() bool
}

func newOrderedSink(out chan<- FileResult, capacity int, isCancelled func() bool) *orderedSink {
	s := &orderedSink{
		pending:     make(map[int]FileResult),
		capacity:    capacity,
		out:         out,
		isCancelled: isCancelled,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// submit registers the result for file idx, blocking while the buffer is
// already full and idx is not the piece the sink is waiting on. Once idx
// reaches the head (immediately, or after a prior blocked submit drains),
// it and every contiguous successor already buffered are flushed to out in
// order. A cancellation can leave a permanent gap at next (the skipped
// file's result never arrives), so the wait also re-checks isCancelled on
// every wake rather than waiting for a head advance that will never come.
func (s *orderedSink) submit(idx int, r FileResult) {
	s.mu.Lock()
	for len(s.pending) >= s.capacity && idx != s.next && !s.isCancelled() {
		s.cond.Wait()
	}
	s.pending[idx] = r
	for {
		fr, ok := s.pending[s.next]
		if !ok {
			break
		}
		delete(s.pending, s.next)
		s.next++
		s.mu.Unlock()
		s.out <- fr
		s.mu.Lock()
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Run streams FileResults for j.Files in enumeration order, closing the
// returned channel once every file has been processed or the job is
// cancelled. A cancelled job simply stops the stream short; the caller sees
// however many FileResults were produced before the cut.
func (j *SearchJob) Run(ctx context.Context) <-chan FileResult {
	out := make(chan FileResult, sinkBacklog)

	go func() {
		defer close(out)

		tasks := make(chan indexedTask, sinkBacklog)
		sink := newOrderedSink(out, sinkBacklog, j.isCancelled)
		j.sink.Store(sink)
		defer j.sink.Store(nil)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			defer close(tasks)
			for i, path := range j.Files {
				if j.isCancelled() || gctx.Err() != nil {
					return nil
				}
				select {
				case tasks <- indexedTask{idx: i, path: path}:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})

		for w := 0; w < j.Workers; w++ {
			g.Go(func() error {
				for t := range tasks {
					if j.isCancelled() {
						continue
					}
					r := MatchFile(t.path, j.Pattern, j.Template, j.MaxBytes, j.Generation, j.isCancelled)
					sink.submit(t.idx, r)
				}
				return nil
			})
		}

		_ = g.Wait()
	}()

	return out
}
