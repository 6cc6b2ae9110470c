// Package broker is the cross-instance fan-out transport. Every server
// instance consumes each published payload exactly once per instance under
// normal operation; redelivery after a consumer crash is possible, so
// consumers must tolerate at-least-once.
package broker

import "context"

// Handler is invoked once per consumed payload.
type Handler func(ctx context.Context, payload []byte)

// Publisher pushes a payload onto a topic. The partition key exists so a
// transport that partitions by key keeps per-room order within one stream.
type Publisher interface {
	Publish(ctx context.Context, topic, partitionKey string, payload []byte) error
}

// Subscriber runs a consume loop until the context is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, group string, h Handler) error
}
