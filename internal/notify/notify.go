// Package notify broadcasts ledger change events so listeners can refresh
// derived state after a mutation. An in-process dispatcher serves the HTTP
// layer; an optional AMQP publisher forwards events to external workers.
package notify

import (
	"sync"
	"time"
)

// Event describes a ledger mutation.
type Event struct {
	// Kind is one of "entry.created", "entry.updated", "entry.deleted",
	// "entry.toggled", "group.changed", "tag.changed".
	Kind      string    `json:"kind"`
	EntryID   string    `json:"entry_id,omitempty"`
	ConfigID  string    `json:"config_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind, entryID, configID string) Event {
	return Event{Kind: kind, EntryID: entryID, ConfigID: configID, Timestamp: time.Now()}
}

// Notifier fans events out to subscribers. Callbacks run synchronously on
// the publishing goroutine, so they must not block.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(Event))}
}

// Subscribe registers a callback and returns a function that removes it.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Publish delivers the event to every subscriber.
func (n *Notifier) Publish(event Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}
