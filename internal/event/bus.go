package event

import "sync"

// Handler receives events matching a subscription.
type Handler func(Event)

type subscription struct {
	types   map[Type]struct{}
	handler Handler
	removed bool
}

// Bus is a type-keyed publish/subscribe registry. Dispatch is
// synchronous and ordered: all matching subscribers run before Publish
// returns, in subscription order. A handler may unsubscribe itself or
// any other subscriber during dispatch without corrupting iteration.
type Bus struct {
	mu   sync.Mutex
	subs []*subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for the given event types and returns a
// function that removes the subscription. Subscribing with no types
// registers for nothing; the returned unsubscribe is still valid.
func (b *Bus) Subscribe(types []Type, h Handler) (unsubscribe func()) {
	sub := &subscription{
		types:   make(map[Type]struct{}, len(types)),
		handler: h,
	}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub.removed {
			return
		}
		sub.removed = true
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers ev to every live subscriber whose type set contains
// ev.Type. Handlers run on the caller's goroutine; the lock is not held
// during dispatch, so handlers are free to publish or unsubscribe.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	snapshot := make([]*subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.mu.Lock()
		live := !sub.removed
		_, wants := sub.types[ev.Type]
		b.mu.Unlock()
		if live && wants {
			sub.handler(ev)
		}
	}
}
