// Package messaging defines the message and delivery contracts shared by the
// stream transport and its consumers.
package messaging

import (
	"context"
	"time"
)

// Message represents a message received from or sent to a message broker.
type Message struct {
	// Subject is the topic/channel the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Metadata contains optional key-value pairs for message headers.
	Metadata map[string]string

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// Delivery wraps a message received from a durable stream together with its
// acknowledgment controls. Consumers decide the fate of each delivery:
//
//   - Ack: processing finished, do not redeliver.
//   - Nak: transient failure, redeliver after the given delay.
//   - Term: unrecoverable, never redeliver (caller dead-letters first).
type Delivery struct {
	Msg *Message

	// Attempt is the 1-based delivery attempt count for this message.
	Attempt int

	Ack  func() error
	Nak  func(delay time.Duration) error
	Term func() error
}

// DeliveryHandler processes a stream delivery. The handler owns acknowledgment;
// the transport never acks on its behalf.
type DeliveryHandler func(ctx context.Context, d *Delivery)
