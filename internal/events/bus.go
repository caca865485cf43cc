// Package events is the in-process change-notification bus. After every
// balance-affecting operation the handlers broadcast a named, payload-less
// signal; interested views re-fetch on receipt. Delivery is fire-and-forget:
// a subscriber that is not draining its channel misses signals and is simply
// stale until the next one.
package events

import "sync"

// DataChanged is broadcast after every mutating operation.
const DataChanged = "data_changed"

// Bus fans signals out to per-user subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[uint]map[chan string]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint]map[chan string]struct{})}
}

// Subscribe registers a listener for one user's signals. The returned channel
// is buffered; call the cancel func to unsubscribe.
func (b *Bus) Subscribe(userID uint) (<-chan string, func()) {
	ch := make(chan string, 8)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan string]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs[userID], ch)
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish broadcasts a signal to all of a user's subscribers without
// blocking; subscribers with a full buffer are skipped.
func (b *Bus) Publish(userID uint, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- name:
		default:
		}
	}
}
