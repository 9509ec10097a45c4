package domain

import "context"

// SignalBus is the in-process pub/sub channel between the engine and its
// observers (the WebSocket hub, notifiers). Publish must never block the
// publisher on a slow subscriber.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Well-known bus channels.
const (
	ChannelArb    = "arb"
	ChannelOrders = "orders"
)
