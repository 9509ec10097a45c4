// Package bus provides an in-process implementation of domain.SignalBus.
// The engine runs self-contained, so pub/sub between the coordinator and its
// observers (WebSocket hub, notifiers) stays in memory rather than going
// through an external broker.
package bus

import (
	"context"
	"sync"

	"github.com/openarb/arbengine/internal/domain"
)

// subscriberBufferSize is the per-subscriber channel buffer. A subscriber
// that falls this far behind starts losing messages.
const subscriberBufferSize = 128

// Bus implements domain.SignalBus with per-channel subscriber fan-out. It is
// safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[string][]chan []byte),
	}
}

// Publish delivers payload to every subscriber of channel. Delivery is
// best-effort: a subscriber whose buffer is full is skipped so a slow
// consumer can never block the publisher.
func (b *Bus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber on channel and returns its receive
// channel. The subscription is removed and the channel closed when the
// context is cancelled.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, subscriberBufferSize)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		subs := b.subs[channel]
		for i, c := range subs {
			if c == ch {
				b.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*Bus)(nil)
