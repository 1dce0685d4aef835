// Package bus is the in-process update channel that keeps the dashboard
// panels in sync: any component may publish after new data lands, and every
// subscriber re-reads the aggregation store in response.
package bus

import (
	"sync"

	"github.com/rs/zerolog"
)

// Bus delivers publishes synchronously to all subscribers, in subscription
// order. Each Subscribe is an independent registration identified by an
// opaque id; Go gives no reliable identity for function values, so two
// registrations of the same function are two subscriptions, each with its
// own unsubscribe. A panicking subscriber is recovered and logged so it
// cannot suppress delivery to the rest.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []entry
	logger zerolog.Logger
}

type entry struct {
	id uint64
	fn func()
}

func New(logger zerolog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers fn and returns its unsubscribe function. Unsubscribe
// removes only this registration and is safe to call more than once.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, entry{id: id, fn: fn})
	return func() { b.remove(id) }
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.subs {
		if e.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish invokes every currently-subscribed callback synchronously, in
// subscription order. The subscriber list is snapshotted first, so
// callbacks may subscribe or unsubscribe without deadlocking.
func (b *Bus) Publish() {
	b.mu.Lock()
	snapshot := make([]entry, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, e := range snapshot {
		b.deliver(e.fn)
	}
}

func (b *Bus) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("bus subscriber panicked")
		}
	}()
	fn()
}
