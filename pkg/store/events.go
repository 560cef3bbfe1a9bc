package store

import (
	"sync"

	"github.com/aretw0/scribble/pkg/core"
)

// broker fans store events out to subscribers. Delivery never blocks a
// mutation: a subscriber whose buffer is full misses the event.
type broker struct {
	mu      sync.Mutex
	next    int
	subs    map[int]chan core.Event
	dropped int
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan core.Event)}
}

func (b *broker) subscribe(buffer int) (<-chan core.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan core.Event, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *broker) publish(events ...core.Event) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range events {
		for _, ch := range b.subs {
			select {
			case ch <- ev:
			default:
				b.dropped++
			}
		}
	}
}

func (b *broker) stats() (subscribers, dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs), b.dropped
}

// Subscribe returns a channel receiving every change made to the store and a
// function that cancels the subscription and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan core.Event, func()) {
	return s.bus.subscribe(buffer)
}
