package events

import (
	"sync"
	"time"

	"github.com/patrolbot/hub/internal/domain"
)

const subscriberBuffer = 64

// Subscriber is one live delivery channel. It exists only while its owning
// connection is open and has no identity outside the bus.
type Subscriber struct {
	ch   chan domain.Event
	done chan struct{}
	once sync.Once
}

// Receive blocks until an event arrives or the timeout elapses. The bool is
// false on timeout (the caller then emits a heartbeat) and after the
// subscriber has been removed from the bus.
func (s *Subscriber) Receive(timeout time.Duration) (domain.Event, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-s.ch:
		return event, true
	case <-s.done:
		return nil, false
	case <-timer.C:
		return nil, false
	}
}

// Closed reports whether the subscriber has been removed from the bus.
func (s *Subscriber) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Bus fans events out to every currently registered subscriber. Delivery is
// best-effort at-most-once: events published while a subscriber is absent
// are lost to it permanently, and per-subscriber FIFO is the only ordering
// guarantee.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new delivery channel.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		ch:   make(chan domain.Event, subscriberBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscriber; safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
	sub.close()
}

// Publish delivers the event to all current subscribers without blocking.
// A subscriber whose buffer is full cannot keep up and is pruned as a side
// effect of the failed delivery attempt.
func (b *Bus) Publish(event domain.Event) {
	b.mu.Lock()
	snapshot := make([]*Subscriber, 0, len(b.subs))
	for sub := range b.subs {
		snapshot = append(snapshot, sub)
	}
	b.mu.Unlock()

	for _, sub := range snapshot {
		select {
		case sub.ch <- event:
		default:
			b.Unsubscribe(sub)
		}
	}
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
