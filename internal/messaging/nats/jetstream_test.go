package nats

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise-systems/seatwise/internal/messaging"
)

// Fakes embed the jetstream interfaces and implement only what the client
// under test calls.

type fakeJetStream struct {
	jetstream.JetStream
	streams map[string]*fakeStream
}

func (f *fakeJetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	s, ok := f.streams[cfg.Name]
	if !ok {
		s = &fakeStream{}
		f.streams[cfg.Name] = s
	}
	s.config = cfg
	return s, nil
}

func (f *fakeJetStream) Stream(ctx context.Context, name string) (jetstream.Stream, error) {
	s, ok := f.streams[name]
	if !ok {
		return nil, jetstream.ErrStreamNotFound
	}
	return s, nil
}

type fakeStream struct {
	jetstream.Stream
	config    jetstream.StreamConfig
	consumers map[string]jetstream.ConsumerConfig
	pull      *fakeConsumer
}

func (s *fakeStream) CreateOrUpdateConsumer(ctx context.Context, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	if s.consumers == nil {
		s.consumers = make(map[string]jetstream.ConsumerConfig)
	}
	s.consumers[cfg.Name] = cfg
	return &fakeConsumer{}, nil
}

func (s *fakeStream) Consumer(ctx context.Context, name string) (jetstream.Consumer, error) {
	if s.pull == nil {
		return nil, jetstream.ErrConsumerNotFound
	}
	return s.pull, nil
}

type fakeConsumer struct {
	jetstream.Consumer
	handler jetstream.MessageHandler
}

func (c *fakeConsumer) Consume(handler jetstream.MessageHandler, opts ...jetstream.PullConsumeOpt) (jetstream.ConsumeContext, error) {
	c.handler = handler
	return fakeConsumeContext{}, nil
}

type fakeConsumeContext struct {
	jetstream.ConsumeContext
}

func (fakeConsumeContext) Stop() {}

type fakeMsg struct {
	jetstream.Msg
	subject   string
	data      []byte
	delivered uint64
}

func (m *fakeMsg) Subject() string      { return m.subject }
func (m *fakeMsg) Data() []byte         { return m.data }
func (m *fakeMsg) Headers() nats.Header { return nil }

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{NumDelivered: m.delivered}, nil
}

func (m *fakeMsg) Ack() error                       { return nil }
func (m *fakeMsg) NakWithDelay(time.Duration) error { return nil }
func (m *fakeMsg) Term() error                      { return nil }

func TestEnsureDecisionDeliveryBindsNotifierDurable(t *testing.T) {
	fake := &fakeJetStream{streams: make(map[string]*fakeStream)}
	c := &JetStreamClient{js: fake}

	require.NoError(t, c.EnsureDecisionDelivery(context.Background(), 7))

	stream, ok := fake.streams[DecisionsStream.Name]
	require.True(t, ok, "decisions stream not created")
	assert.Equal(t, jetstream.InterestPolicy, stream.config.Retention)

	// Interest retention drops decisions with no bound consumer, so the
	// notifier's durable must exist before the first decision is published,
	// whichever process boots first.
	cons, ok := stream.consumers[messaging.ConsumerNotifier]
	require.True(t, ok, "notifier durable not bound")
	assert.Equal(t, messaging.ConsumerNotifier, cons.Durable)
	assert.Equal(t, messaging.SubjectRegistrationsDecided, cons.FilterSubject)
	assert.Equal(t, jetstream.AckExplicitPolicy, cons.AckPolicy)
	assert.Equal(t, 7, cons.MaxDeliver)
}

func TestEnsureDecisionDeliveryDefaultBudget(t *testing.T) {
	fake := &fakeJetStream{streams: make(map[string]*fakeStream)}
	c := &JetStreamClient{js: fake}

	require.NoError(t, c.EnsureDecisionDelivery(context.Background(), 0))

	cons := fake.streams[DecisionsStream.Name].consumers[messaging.ConsumerNotifier]
	assert.Equal(t, DefaultConsumerConfig("", "").MaxDeliver, cons.MaxDeliver)
}

func TestConsumeDeliveriesStopWaitsForHandler(t *testing.T) {
	consumer := &fakeConsumer{}
	fake := &fakeJetStream{streams: map[string]*fakeStream{
		DecisionsStream.Name: {pull: consumer},
	}}
	c := &JetStreamClient{js: fake}

	entered := make(chan struct{})
	release := make(chan struct{})
	var got *messaging.Delivery

	stop, err := c.ConsumeDeliveries(context.Background(), DecisionsStream.Name, messaging.ConsumerNotifier,
		func(ctx context.Context, d *messaging.Delivery) {
			got = d
			close(entered)
			<-release
		})
	require.NoError(t, err)
	require.NotNil(t, consumer.handler)

	handlerDone := make(chan struct{})
	go func() {
		consumer.handler(&fakeMsg{subject: "registrations.decided", data: []byte(`{}`), delivered: 2})
		close(handlerDone)
	}()
	<-entered

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	// stop must block while a delivery is still in the handler.
	select {
	case <-stopped:
		t.Fatal("stop returned while a delivery was being handled")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after the handler finished")
	}
	<-handlerDone

	require.NotNil(t, got)
	assert.Equal(t, "registrations.decided", got.Msg.Subject)
	assert.Equal(t, 2, got.Attempt)
}
