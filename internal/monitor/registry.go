package monitor

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"klipperwatch/internal/clock"
)

// StartResult is the outcome of Registry.Start.
type StartResult int

const (
	Started StartResult = iota + 1
	AlreadyActive
)

func (r StartResult) String() string {
	switch r {
	case Started:
		return "started"
	case AlreadyActive:
		return "already_active"
	default:
		return "unknown"
	}
}

// Decision tells the registry what to do after a poll.
type Decision int

const (
	// Continue re-arms the watch for another interval.
	Continue Decision = iota
	// Finish removes the watch.
	Finish
)

// PollFunc runs one tick of a watch. ctx is cancelled when the watch is
// stopped.
type PollFunc func(ctx context.Context, w *Watch) Decision

// Watch is one conversation's recurring check. Fields are read-only after
// Start; the registry owns the timer.
type Watch struct {
	ID             string
	ConversationID string
	CreatedAt      time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	poll    PollFunc
	timer   *clock.Timer // guarded by Registry.mu
	ticks   int          // guarded by Registry.mu
	stopped atomic.Bool
}

// Active reports whether the watch is still registered.
func (w *Watch) Active() bool { return !w.stopped.Load() }

// WatchInfo is a read-only view of a watch.
type WatchInfo struct {
	ID             string
	ConversationID string
	CreatedAt      time.Time
	Ticks          int
}

// Registry holds at most one Watch per conversation and drives each watch on
// its own timer. All methods are safe for concurrent use.
type Registry struct {
	mu           sync.Mutex
	clock        clock.Clock
	initialDelay time.Duration
	interval     time.Duration
	watches      map[string]*Watch
	closed       bool
}

// NewRegistry returns an empty registry. Non-positive durations fall back to
// the package defaults.
func NewRegistry(c clock.Clock, initialDelay, interval time.Duration) *Registry {
	if c == nil {
		c = clock.Real()
	}
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Registry{
		clock:        c,
		initialDelay: initialDelay,
		interval:     interval,
		watches:      make(map[string]*Watch),
	}
}

// Start registers a watch for conversationID and schedules its first poll
// after the initial delay. If one is already registered nothing changes and
// the existing watch is returned with AlreadyActive. After Close it returns
// ErrClosed.
func (r *Registry) Start(conversationID string, poll PollFunc) (StartResult, *Watch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, nil, ErrClosed
	}
	if w, ok := r.watches[conversationID]; ok {
		return AlreadyActive, w, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watch{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		CreatedAt:      r.clock.Now(),
		ctx:            ctx,
		cancel:         cancel,
		poll:           poll,
	}
	r.watches[conversationID] = w
	w.timer = r.clock.AfterFunc(r.initialDelay, func() { r.fire(w) })
	activeWatches.Set(float64(len(r.watches)))
	return Started, w, nil
}

// Stop cancels and removes the conversation's watch. It reports whether a
// watch was registered; stopping an absent watch is a no-op. No poll starts
// for the watch after Stop returns.
func (r *Registry) Stop(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.watches[conversationID]
	if !ok {
		return false
	}
	r.removeLocked(w)
	return true
}

// StopAll removes every watch and returns how many there were.
func (r *Registry) StopAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.watches)
	for _, w := range r.watches {
		r.removeLocked(w)
	}
	return n
}

// Close removes every watch and rejects later Starts. It returns how many
// watches were removed.
func (r *Registry) Close() int {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.StopAll()
}

// Get returns the conversation's watch, if any.
func (r *Registry) Get(conversationID string) (WatchInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.watches[conversationID]
	if !ok {
		return WatchInfo{}, false
	}
	return infoLocked(w), true
}

// List returns all watches ordered by conversation ID.
func (r *Registry) List() []WatchInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]WatchInfo, 0, len(r.watches))
	for _, w := range r.watches {
		out = append(out, infoLocked(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConversationID < out[j].ConversationID })
	return out
}

// Len returns the number of registered watches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// fire runs one poll. Membership is checked before polling and again before
// re-arming, so a watch stopped while its poll was in flight is not
// rescheduled.
func (r *Registry) fire(w *Watch) {
	r.mu.Lock()
	if !r.currentLocked(w) {
		r.mu.Unlock()
		return
	}
	w.ticks++
	r.mu.Unlock()

	decision := w.poll(w.ctx, w)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.currentLocked(w) {
		return
	}
	if decision == Finish {
		r.removeLocked(w)
		return
	}
	w.timer = r.clock.AfterFunc(r.interval, func() { r.fire(w) })
}

func (r *Registry) currentLocked(w *Watch) bool {
	return w.Active() && r.watches[w.ConversationID] == w
}

func (r *Registry) removeLocked(w *Watch) {
	w.stopped.Store(true)
	w.timer.Stop()
	w.cancel()
	delete(r.watches, w.ConversationID)
	activeWatches.Set(float64(len(r.watches)))
}

func infoLocked(w *Watch) WatchInfo {
	return WatchInfo{ID: w.ID, ConversationID: w.ConversationID, CreatedAt: w.CreatedAt, Ticks: w.ticks}
}
