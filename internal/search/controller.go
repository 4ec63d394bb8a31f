package search

import (
	"sync"
	"time"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke before a
	// search starts.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultMinSearch is the shortest time the searching indicator stays up.
	DefaultMinSearch = 500 * time.Millisecond
)

// Phase is the lifecycle stage of the current query.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDebouncing
	PhaseSearching
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseSearching:
		return "searching"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Busy reports whether a loading indicator should be shown.
func (p Phase) Busy() bool {
	return p == PhaseDebouncing || p == PhaseSearching
}

// View is the observable output of a Controller.
type View[T any] struct {
	Visible []T
	Phase   Phase
	Query   string
	// Token identifies the query cycle that produced this view.
	Token uint64
	// Revision increases on every state change. OnChange callbacks may be
	// delivered from different goroutines; consumers drop views whose
	// Revision is not newer than the last one they applied.
	Revision uint64
}

// Options configure a Controller.
type Options[T any] struct {
	// Title extracts the text a query is matched against. Required.
	Title     func(T) string
	Debounce  time.Duration // zero uses DefaultDebounce
	MinSearch time.Duration // zero uses DefaultMinSearch; negative disables padding
	Scheduler Scheduler     // nil uses WallClock
	Now       func() time.Time
	// OnChange is called after every state change, without the controller
	// lock held.
	OnChange func(View[T])
}

// Controller turns a stream of query edits into a settled, filtered list with
// a minimum visible search duration.
//
// Every asynchronous resumption point compares its token with the current
// one; a superseded timer that still fires is a no-op. Stopping timers only
// saves wakeups.
type Controller[T any] struct {
	title     func(T) string
	debounce  time.Duration
	minSearch time.Duration
	sched     Scheduler
	now       func() time.Time
	onChange  func(View[T])

	mu       sync.Mutex
	fullSet  []T
	query    string
	visible  []T
	phase    Phase
	token    uint64
	revision uint64
	timer    Timer
	closed   bool
}

// New creates a controller over the baseline items. The view starts idle and
// shows every item.
func New[T any](items []T, opts Options[T]) *Controller[T] {
	if opts.Title == nil {
		panic("search: Options.Title is required")
	}
	c := &Controller[T]{
		title:     opts.Title,
		debounce:  opts.Debounce,
		minSearch: opts.MinSearch,
		sched:     opts.Scheduler,
		now:       opts.Now,
		onChange:  opts.OnChange,
		fullSet:   clone(items),
		phase:     PhaseIdle,
	}
	if c.debounce <= 0 {
		c.debounce = DefaultDebounce
	}
	if c.minSearch < 0 {
		c.minSearch = 0
	} else if c.minSearch == 0 {
		c.minSearch = DefaultMinSearch
	}
	if c.sched == nil {
		c.sched = WallClock{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.visible = clone(c.fullSet)
	return c
}

// SetQuery records the latest query and supersedes any cycle in flight.
func (c *Controller[T]) SetQuery(q string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = q
	if q == "" {
		c.resetLocked()
	} else {
		c.restartLocked()
	}
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
}

// SetItems replaces the baseline. With an empty query the view follows the
// new items immediately; otherwise the current cycle restarts against them.
func (c *Controller[T]) SetItems(items []T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.fullSet = clone(items)
	if c.query == "" {
		c.resetLocked()
	} else {
		c.restartLocked()
	}
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
}

// View returns a copy of the current output.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close invalidates all outstanding cycles and stops pending timers. Later
// calls to SetQuery and SetItems are ignored.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.token++
	c.stopTimerLocked()
}

func (c *Controller[T]) resetLocked() {
	c.token++
	c.stopTimerLocked()
	c.visible = clone(c.fullSet)
	c.phase = PhaseIdle
	c.revision++
}

func (c *Controller[T]) restartLocked() {
	c.token++
	c.stopTimerLocked()
	c.phase = PhaseDebouncing
	c.revision++
	token := c.token
	c.timer = c.sched.AfterFunc(c.debounce, func() { c.debounceFired(token) })
}

func (c *Controller[T]) debounceFired(token uint64) {
	c.mu.Lock()
	if c.closed || token != c.token {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.phase = PhaseSearching
	c.revision++

	started := c.now()
	result := Filter(c.fullSet, c.query, c.title)
	remaining := c.minSearch - c.now().Sub(started)

	if remaining > 0 {
		c.timer = c.sched.AfterFunc(remaining, func() { c.commit(token, result) })
		v := c.viewLocked()
		c.mu.Unlock()
		c.notify(v)
		return
	}
	c.commitLocked(result)
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
}

func (c *Controller[T]) commit(token uint64, result []T) {
	c.mu.Lock()
	if c.closed || token != c.token {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.commitLocked(result)
	v := c.viewLocked()
	c.mu.Unlock()
	c.notify(v)
}

func (c *Controller[T]) commitLocked(result []T) {
	c.visible = result
	c.phase = PhaseSettled
	c.revision++
}

func (c *Controller[T]) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller[T]) viewLocked() View[T] {
	return View[T]{
		Visible:  clone(c.visible),
		Phase:    c.phase,
		Query:    c.query,
		Token:    c.token,
		Revision: c.revision,
	}
}

func (c *Controller[T]) notify(v View[T]) {
	if c.onChange != nil {
		c.onChange(v)
	}
}
