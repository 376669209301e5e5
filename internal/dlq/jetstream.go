// Package dlq provides a JetStream-backed dead-letter queue. Messages that
// exhausted their delivery budget or are permanently malformed are published
// here with full diagnostic context, never silently discarded.
package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/seatwise-systems/seatwise/internal/messaging"
	natsclient "github.com/seatwise-systems/seatwise/internal/messaging/nats"
	"github.com/seatwise-systems/seatwise/internal/metrics"
)

// FailedMessage captures a dead-lettered message and its failure history.
type FailedMessage struct {
	Timestamp   time.Time       `json:"timestamp"`
	Subject     string          `json:"subject"`
	Payload     json.RawMessage `json:"payload"`
	Error       string          `json:"error"`
	Reason      string          `json:"reason"`
	Attempts    int             `json:"attempts"`
	LastAttempt time.Time       `json:"last_attempt"`
}

// Queue writes failed messages to the shared dead-letter stream.
// Safe for use across multiple worker instances.
type Queue struct {
	js      *natsclient.JetStreamClient
	stream  jetstream.Stream
	prefix  string
	written uint64
}

// NewQueue creates a DLQ publishing under the given subject prefix
// (e.g. messaging.SubjectRegistrationsDLQ). The dead-letter stream is
// created if it does not exist.
func NewQueue(ctx context.Context, js *natsclient.JetStreamClient, prefix string) (*Queue, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream client is nil")
	}

	stream, err := js.CreateOrUpdateStream(ctx, natsclient.DeadLetterStream)
	if err != nil {
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}

	return &Queue{
		js:     js,
		stream: stream,
		prefix: prefix,
	}, nil
}

// Write records a failed message under {prefix}.{reason}.
func (q *Queue) Write(ctx context.Context, reason string, msg *messaging.Message, attempts int, cause error) error {
	if q == nil {
		return nil
	}

	errText := ""
	if cause != nil {
		errText = cause.Error()
	}

	failed := FailedMessage{
		Timestamp:   time.Now().UTC(),
		Subject:     msg.Subject,
		Payload:     json.RawMessage(msg.Data),
		Error:       errText,
		Reason:      reason,
		Attempts:    attempts,
		LastAttempt: time.Now().UTC(),
	}

	data, marshalErr := json.Marshal(failed)
	if marshalErr != nil {
		slog.Error("failed to marshal DLQ entry", slog.String("error", marshalErr.Error()))
		return marshalErr
	}

	subject := q.prefix + "." + reason

	if _, err := q.js.PublishSync(ctx, subject, data); err != nil {
		slog.Error("failed to publish DLQ entry", slog.String("error", err.Error()))
		return err
	}

	atomic.AddUint64(&q.written, 1)
	metrics.DeadLettersTotal.WithLabelValues(reason).Inc()
	slog.Warn("dead-lettered message",
		slog.String("subject", msg.Subject),
		slog.String("reason", reason),
		slog.Int("attempts", attempts),
	)

	return nil
}

// Stats returns DLQ metrics from JetStream.
func (q *Queue) Stats(ctx context.Context) map[string]interface{} {
	if q == nil {
		return map[string]interface{}{"enabled": false}
	}

	info, err := q.stream.Info(ctx)
	if err != nil {
		return map[string]interface{}{
			"enabled":       true,
			"written_local": atomic.LoadUint64(&q.written),
			"error":         err.Error(),
		}
	}

	return map[string]interface{}{
		"enabled":        true,
		"written_local":  atomic.LoadUint64(&q.written),
		"total_messages": info.State.Msgs,
		"total_bytes":    info.State.Bytes,
		"first_seq":      info.State.FirstSeq,
		"last_seq":       info.State.LastSeq,
	}
}

// List returns failed messages under this queue's prefix for inspection.
func (q *Queue) List(ctx context.Context, limit int) ([]FailedMessage, error) {
	if q == nil {
		return nil, fmt.Errorf("dlq not enabled")
	}

	if limit <= 0 {
		limit = 100
	}

	consumer, err := q.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: q.prefix + ".>",
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("create list consumer: %w", err)
	}

	msgs, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var failed []FailedMessage
	for msg := range msgs.Messages() {
		var fm FailedMessage
		if err := json.Unmarshal(msg.Data(), &fm); err != nil {
			slog.Warn("failed to parse DLQ message", slog.String("error", err.Error()))
			continue
		}
		failed = append(failed, fm)
	}

	if msgs.Error() != nil {
		slog.Warn("DLQ fetch completed with error", slog.String("error", msgs.Error().Error()))
	}

	return failed, nil
}
