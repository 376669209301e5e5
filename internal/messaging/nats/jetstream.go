package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/seatwise-systems/seatwise/internal/messaging"
)

// JetStreamClient extends Client with JetStream persistence capabilities.
type JetStreamClient struct {
	*Client
	js jetstream.JetStream
}

// StreamConfig defines a JetStream stream configuration.
type StreamConfig struct {
	// Name is the stream name.
	Name string

	// Subjects are the subjects this stream captures.
	Subjects []string

	// MaxAge is the maximum age of messages in the stream.
	MaxAge time.Duration

	// MaxBytes is the maximum total size of the stream.
	MaxBytes int64

	// MaxMsgs is the maximum number of messages in the stream.
	MaxMsgs int64

	// Retention policy (LimitsPolicy, InterestPolicy, WorkQueuePolicy).
	Retention jetstream.RetentionPolicy

	// Storage type (FileStorage, MemoryStorage).
	Storage jetstream.StorageType
}

// ConsumerConfig defines a JetStream consumer configuration.
type ConsumerConfig struct {
	// Name is the durable consumer name.
	Name string

	// FilterSubject filters which messages this consumer receives.
	FilterSubject string

	// AckWait is time to wait for acknowledgment before redelivery.
	AckWait time.Duration

	// MaxDeliver is maximum delivery attempts before giving up.
	MaxDeliver int

	// MaxAckPending is maximum unacknowledged messages.
	MaxAckPending int
}

// DefaultConsumerConfig returns sensible defaults for a consumer.
func DefaultConsumerConfig(name, filterSubject string) ConsumerConfig {
	return ConsumerConfig{
		Name:          name,
		FilterSubject: filterSubject,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		MaxAckPending: 256,
	}
}

// NewJetStreamClient creates a JetStream-enabled client.
func NewJetStreamClient(cfg Config) (*JetStreamClient, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(client.conn)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &JetStreamClient{
		Client: client,
		js:     js,
	}, nil
}

// CreateOrUpdateStream creates or updates a stream.
func (c *JetStreamClient) CreateOrUpdateStream(ctx context.Context, cfg StreamConfig) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:      cfg.Name,
		Subjects:  cfg.Subjects,
		MaxAge:    cfg.MaxAge,
		MaxBytes:  cfg.MaxBytes,
		MaxMsgs:   cfg.MaxMsgs,
		Retention: cfg.Retention,
		Storage:   cfg.Storage,
	}

	stream, err := c.js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.Name, err)
	}

	return stream, nil
}

// CreateOrUpdateConsumer creates or updates a durable consumer.
func (c *JetStreamClient) CreateOrUpdateConsumer(ctx context.Context, streamName string, cfg ConsumerConfig) (jetstream.Consumer, error) {
	consumerCfg := jetstream.ConsumerConfig{
		Name:          cfg.Name,
		Durable:       cfg.Name,
		FilterSubject: cfg.FilterSubject,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliver,
		MaxAckPending: cfg.MaxAckPending,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}

	stream, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream %s: %w", streamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create/update consumer %s: %w", cfg.Name, err)
	}

	return consumer, nil
}

// EnsureDecisionDelivery creates the decisions stream and binds the notifier's
// durable consumer to it. The stream has interest retention, so a decision
// published while no consumer is bound is discarded by the broker; every
// process that publishes or consumes decisions must call this before its
// first publish. maxDeliver <= 0 keeps the default delivery budget.
func (c *JetStreamClient) EnsureDecisionDelivery(ctx context.Context, maxDeliver int) error {
	if _, err := c.CreateOrUpdateStream(ctx, DecisionsStream); err != nil {
		return err
	}

	cfg := DefaultConsumerConfig(messaging.ConsumerNotifier, messaging.SubjectRegistrationsDecided)
	if maxDeliver > 0 {
		cfg.MaxDeliver = maxDeliver
	}
	_, err := c.CreateOrUpdateConsumer(ctx, DecisionsStream.Name, cfg)
	return err
}

// PublishSync publishes a message and waits for broker acknowledgment.
func (c *JetStreamClient) PublishSync(ctx context.Context, subject string, data []byte) (*jetstream.PubAck, error) {
	return c.js.Publish(ctx, subject, data)
}

// DurablePublisher adapts synchronous JetStream publishing to the plain
// Publish shape. Every publish waits for broker acknowledgment, so a nil
// error means the message is persisted in the stream.
type DurablePublisher struct {
	js *JetStreamClient
}

// Durable returns a publisher that waits for stream persistence. A nil error
// from it means the broker holds the message.
func (c *JetStreamClient) Durable() *DurablePublisher {
	return &DurablePublisher{js: c}
}

func (p *DurablePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.PublishSync(ctx, subject, data)
	return err
}

// ConsumeDeliveries starts consuming from a durable consumer, handing each
// message to the handler as a Delivery. The handler owns acknowledgment:
// nothing is acked, naked or termed on its behalf. Deliveries are handed over
// in stream order.
//
// Returns a stop function that halts consumption and waits for the in-flight
// handler call, if any, to return before the handler's context is cancelled.
func (c *JetStreamClient) ConsumeDeliveries(ctx context.Context, streamName, consumerName string, handler messaging.DeliveryHandler) (func(), error) {
	stream, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream %s: %w", streamName, err)
	}

	consumer, err := stream.Consumer(ctx, consumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer %s: %w", consumerName, err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)

	var inflight sync.WaitGroup
	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		inflight.Add(1)
		defer inflight.Done()

		m := &messaging.Message{
			Subject:   msg.Subject(),
			Data:      msg.Data(),
			Timestamp: time.Now(),
		}

		if headers := msg.Headers(); headers != nil {
			m.Metadata = make(map[string]string)
			for k := range headers {
				m.Metadata[k] = headers.Get(k)
			}
		}

		attempt := 1
		if meta, err := msg.Metadata(); err == nil {
			attempt = int(meta.NumDelivered)
		}

		handler(consumeCtx, &messaging.Delivery{
			Msg:     m,
			Attempt: attempt,
			Ack:     msg.Ack,
			Nak:     msg.NakWithDelay,
			Term:    msg.Term,
		})
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return func() {
		cons.Stop()
		inflight.Wait()
		cancel()
	}, nil
}

// Predefined stream configurations for SeatWise.
var (
	// RegistrationsStream captures registration attempts, partitioned by event
	// in the final subject token. Work-queue retention: each attempt is
	// processed by exactly one admission worker before removal.
	RegistrationsStream = StreamConfig{
		Name:      "REGISTRATIONS",
		Subjects:  []string{"registrations.submit.>"},
		MaxAge:    24 * time.Hour,
		MaxBytes:  256 * 1024 * 1024,
		MaxMsgs:   1000000,
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	}

	// DecisionsStream captures admission decisions for the notifier.
	DecisionsStream = StreamConfig{
		Name:      "DECISIONS",
		Subjects:  []string{"registrations.decided"},
		MaxAge:    24 * time.Hour,
		MaxBytes:  256 * 1024 * 1024,
		MaxMsgs:   1000000,
		Retention: jetstream.InterestPolicy,
		Storage:   jetstream.FileStorage,
	}

	// DeadLetterStream retains messages that exhausted processing. Kept for
	// manual inspection and replay, never consumed automatically.
	DeadLetterStream = StreamConfig{
		Name:      "DEADLETTER",
		Subjects:  []string{"registrations.dlq.>", "notifications.dlq.>"},
		MaxAge:    7 * 24 * time.Hour,
		MaxBytes:  128 * 1024 * 1024,
		MaxMsgs:   100000,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	}
)
