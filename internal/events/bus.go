// Package events fans committed domain changes out to the owning user's
// live connections.
package events

import (
	"sync"
	"time"
)

type Event struct {
	Type   string    `json:"type"`
	UserID int64     `json:"-"`
	At     time.Time `json:"at"`
	Data   any       `json:"data"`
}

// Publisher is the side of the bus services depend on.
type Publisher interface {
	Publish(evt Event)
}

type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]int64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]int64)}
}

// Subscribe returns a channel receiving userID's events. Slow readers drop
// events rather than block publishers.
func (b *Bus) Subscribe(userID int64) chan Event {
	ch := make(chan Event, 100)
	b.mu.Lock()
	b.subs[ch] = userID
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.RLock()
	for ch, userID := range b.subs {
		if userID != evt.UserID {
			continue
		}
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.RUnlock()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
