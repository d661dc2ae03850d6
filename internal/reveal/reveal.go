// Package reveal streams text into a view a few characters at a time.
//
// Each reveal is a Task keyed by its display slot. Starting a task for a slot
// supersedes the one already running there: once Start returns, the older task
// writes nothing more, so two reveals never interleave in one slot.
package reveal

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Interval bounds for one reveal step
const (
	MinInterval = 5 * time.Millisecond
	MaxInterval = 60 * time.Millisecond
)

// DefaultStep is the number of characters appended per step
const DefaultStep = 1

// ErrSuperseded is returned by Task.Wait when another reveal took over the slot
var ErrSuperseded = errors.New("reveal superseded")

// Sink receives revealed text. It only ever gets plain characters.
type Sink interface {
	AppendText(chunk string)
	// AtBottom reports whether the view is scrolled to (or near) its end
	AtBottom() bool
	ScrollToBottom()
}

// ClampInterval bounds d to [MinInterval, MaxInterval]
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}

// Scheduler runs reveal tasks
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	step     int
	tasks    map[string]*Task
}

// NewScheduler creates a scheduler revealing step characters every interval
func NewScheduler(interval time.Duration, step int) *Scheduler {
	if step <= 0 {
		step = DefaultStep
	}
	return &Scheduler{
		interval: ClampInterval(interval),
		step:     step,
		tasks:    make(map[string]*Task),
	}
}

// SetInterval changes the pace of tasks started afterwards
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = ClampInterval(d)
}

// Interval returns the current step interval
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Start begins revealing text into sink under key, superseding any task
// already running for key. The view follows the text only if it was at the
// bottom when the reveal started.
func (s *Scheduler) Start(ctx context.Context, key, text string, sink Sink) *Task {
	runCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		key:    key,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if prior, ok := s.tasks[key]; ok {
		prior.stop(ErrSuperseded)
	}
	s.tasks[key] = t
	interval, step := s.interval, s.step
	s.mu.Unlock()

	follow := sink.AtBottom()
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	go func() {
		defer s.finish(key, t)
		t.run(runCtx, []rune(text), step, limiter, sink, follow)
	}()
	return t
}

// Stop ends the task running under key, if any
func (s *Scheduler) Stop(key string) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if ok {
		delete(s.tasks, key)
	}
	s.mu.Unlock()
	if ok {
		t.stop(context.Canceled)
	}
}

// Active reports whether a task is running under key
func (s *Scheduler) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

func (s *Scheduler) finish(key string, t *Task) {
	s.mu.Lock()
	if s.tasks[key] == t {
		delete(s.tasks, key)
	}
	s.mu.Unlock()
	t.cancel()
	close(t.done)
}

// Task is one running reveal
type Task struct {
	key    string
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	err     error
	written int
}

// Key returns the slot key
func (t *Task) Key() string { return t.key }

// Done is closed when the task ends for any reason
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task ends. It returns nil when all text was revealed,
// ErrSuperseded when a newer task took over, or the context error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Superseded reports whether a newer task replaced this one
func (t *Task) Superseded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Is(t.err, ErrSuperseded)
}

// Written returns the number of characters revealed so far
func (t *Task) Written() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}

// stop prevents any further write. It holds the task lock, so a step in
// progress completes before stop returns and none starts after.
func (t *Task) stop(reason error) {
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		t.err = reason
	}
	t.mu.Unlock()
	t.cancel()
}

func (t *Task) run(ctx context.Context, runes []rune, step int, limiter *rate.Limiter, sink Sink, follow bool) {
	for i := 0; i < len(runes); i += step {
		if err := limiter.Wait(ctx); err != nil {
			t.mu.Lock()
			if !t.stopped {
				t.stopped = true
				t.err = err
			}
			t.mu.Unlock()
			return
		}
		end := min(i+step, len(runes))

		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		sink.AppendText(string(runes[i:end]))
		if follow {
			sink.ScrollToBottom()
		}
		t.written = end
		t.mu.Unlock()
	}
}
