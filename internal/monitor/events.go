package monitor

import "sync"

// Event names published by the monitor.
const (
	EventWatchStarted   = "watch_started"
	EventWatchTick      = "watch_tick"
	EventWatchFinished  = "watch_finished"
	EventWatchCancelled = "watch_cancelled"
	EventNotifyFailed   = "notify_failed"
)

// Event is a watch lifecycle event: a name, the conversation and optional
// fields.
type Event struct {
	Name           string
	ConversationID string
	Fields         map[string]any
}

// EventPublisher receives monitor events. Publish must be cheap and must not
// block or panic.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher keeps events in memory, mostly for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Named returns the published events called name.
func (p *MemoryPublisher) Named(name string) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
