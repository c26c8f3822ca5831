package events

import "sync"

// Signal is a named in-process event with no payload
type Signal string

const (
	// CartChanged is published whenever the guest or remote cart is mutated
	CartChanged Signal = "cart-changed"
	// SessionChanged is published on login and logout
	SessionChanged Signal = "session-changed"
)

// Bus fans signals out to subscribers synchronously
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Signal]map[int]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Signal]map[int]func())}
}

// Subscribe registers fn for sig and returns a function that removes it
func (b *Bus) Subscribe(sig Signal, fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[sig] == nil {
		b.subs[sig] = make(map[int]func())
	}
	b.subs[sig][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[sig], id)
	}
}

// Publish calls every subscriber of sig. A nil bus is a no-op.
func (b *Bus) Publish(sig Signal) {
	if b == nil {
		return
	}
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs[sig]))
	for _, fn := range b.subs[sig] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
