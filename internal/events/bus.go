package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Filter decides whether a subscriber receives an event.
type Filter func(Event) bool

// Subscription is one live subscriber. Events arrive on C until Unregister;
// delivery is best-effort and a full channel drops the event rather than
// blocking the publisher.
type Subscription struct {
	C      chan Event
	filter Filter
}

// DropHandler observes events dropped on a full subscriber channel.
type DropHandler func(Event)

const subscriberBuffer = 16

// Bus is the in-process publish/subscribe registry. It is owned by the
// process and injected into handlers; there is no ambient global state.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	onDrop DropHandler
}

// NewBus creates an empty registry.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// OnDrop installs an observer for dropped events.
func (b *Bus) OnDrop(handler DropHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDrop = handler
}

// Register adds a subscriber. A nil filter receives everything.
func (b *Bus) Register(filter Filter) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, subscriberBuffer),
		filter: filter,
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unregister removes a subscriber and closes its channel. No deliveries
// happen after Unregister returns.
func (b *Bus) Unregister(sub *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.C)
	}
	b.mu.Unlock()
}

// Publish fans the event out to every subscriber whose filter accepts it.
func (b *Bus) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.C <- event:
		default:
			if b.onDrop != nil {
				b.onDrop(event)
			}
		}
	}
}

// Broadcast satisfies the broadcaster contract used by services; without a
// cross-instance bridge the local fan-out is the whole broadcast.
func (b *Bus) Broadcast(_ context.Context, event Event) {
	b.Publish(event)
}

// SubscriberCount reports live subscriptions, used by readiness reporting.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
