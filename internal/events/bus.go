package events

import (
	"sync"

	"github.com/potatoomann/11code-site/internal/models"
)

// Bus is an explicit publish/subscribe channel replacing the old
// storage-change-by-convention notifications: the cart and the admin
// dashboard both subscribe instead of polling shared keys.
type Bus struct {
	mu   sync.RWMutex
	subs []chan models.Event
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a buffered channel receiving every published event.
func (b *Bus) Subscribe() <-chan models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan models.Event, 16)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers to all subscribers without blocking; a slow subscriber
// with a full buffer misses the event.
func (b *Bus) Publish(ev models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
