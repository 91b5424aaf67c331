package events

import "sync"

// Bus fans events out to registered subscribers. Each delivery runs on its
// own goroutine so a slow subscriber can never stall the publishing
// operation; ordering across events is therefore not guaranteed.
type Bus struct {
	mu   sync.Mutex
	subs []func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events. Handlers must tolerate
// concurrent invocation.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		go fn(ev)
	}
}
