package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise-systems/seatwise/internal/messaging"
	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
)

// ============================================================================
// Test Setup
// ============================================================================

type fakeLookup struct {
	events map[string]*models.Event
	users  map[string]*models.User
	err    error
}

func (l *fakeLookup) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if l.err != nil {
		return nil, l.err
	}
	if e, ok := l.events[id]; ok {
		return e, nil
	}
	return nil, repository.ErrEventNotFound
}

func (l *fakeLookup) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if l.err != nil {
		return nil, l.err
	}
	if u, ok := l.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []*Notification
	err  error
}

func (c *fakeChannel) Send(ctx context.Context, n *Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *fakeChannel) Type() string { return "fake" }

func (c *fakeChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fakeDLQ struct {
	reasons []string
}

func (q *fakeDLQ) Write(ctx context.Context, reason string, msg *messaging.Message, attempts int, cause error) error {
	q.reasons = append(q.reasons, reason)
	return nil
}

type settlement struct {
	acked  bool
	termed bool
	naks   int
}

func decisionDelivery(t *testing.T, decision *models.RegistrationDecision, attempt int) (*messaging.Delivery, *settlement) {
	t.Helper()
	data, err := json.Marshal(decision)
	require.NoError(t, err)

	st := &settlement{}
	return &messaging.Delivery{
		Msg: &messaging.Message{
			Subject: "registrations.decided",
			Data:    data,
		},
		Attempt: attempt,
		Ack:     func() error { st.acked = true; return nil },
		Nak:     func(time.Duration) error { st.naks++; return nil },
		Term:    func() error { st.termed = true; return nil },
	}, st
}

func testLookup() *fakeLookup {
	return &fakeLookup{
		events: map[string]*models.Event{
			"evt-1": {ID: "evt-1", Name: "Go Conference", Location: "Berlin", Date: "2026-10-01"},
		},
		users: map[string]*models.User{
			"user-1": {ID: "user-1", Username: "alice", Email: "alice@example.com"},
		},
	}
}

func acceptedDecision() *models.RegistrationDecision {
	return &models.RegistrationDecision{
		EventID:       "evt-1",
		UserID:        "user-1",
		CorrelationID: "corr-1",
		Accepted:      true,
		DecidedAt:     time.Now().UTC(),
	}
}

func setupRedisDeduper(t *testing.T) (*miniredis.Miniredis, *RedisDeduper) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisDeduper(client, time.Hour)
}

// ============================================================================
// Notifier Tests
// ============================================================================

func TestNotifierSendsAndAcks(t *testing.T) {
	channel := &fakeChannel{}
	n := NewNotifier(testLookup(), nil, channel, &fakeDLQ{}, DefaultConfig(), nil)

	d, st := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(context.Background(), d)

	assert.True(t, st.acked)
	require.Equal(t, 1, channel.count())
	sent := channel.sent[0]
	assert.Equal(t, "alice@example.com", sent.To)
	assert.Contains(t, sent.Body, "Go Conference")
	assert.Contains(t, sent.Body, "accepted")
}

func TestNotifierRejectionBody(t *testing.T) {
	channel := &fakeChannel{}
	n := NewNotifier(testLookup(), nil, channel, &fakeDLQ{}, DefaultConfig(), nil)

	decision := acceptedDecision()
	decision.Accepted = false
	d, st := decisionDelivery(t, decision, 1)
	n.Handle(context.Background(), d)

	assert.True(t, st.acked)
	require.Equal(t, 1, channel.count())
	assert.Contains(t, channel.sent[0].Body, "rejected")
}

func TestNotifierDeduplicatesRedeliveries(t *testing.T) {
	_, deduper := setupRedisDeduper(t)
	channel := &fakeChannel{}
	n := NewNotifier(testLookup(), deduper, channel, &fakeDLQ{}, DefaultConfig(), nil)
	ctx := context.Background()

	d1, st1 := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(ctx, d1)
	require.True(t, st1.acked)
	require.Equal(t, 1, channel.count())

	// Redelivery of the same decision is suppressed but still acked.
	d2, st2 := decisionDelivery(t, acceptedDecision(), 2)
	n.Handle(ctx, d2)
	assert.True(t, st2.acked)
	assert.Equal(t, 1, channel.count(), "no duplicate notification")
}

func TestNotifierDedupeExpiryAllowsResend(t *testing.T) {
	mr, deduper := setupRedisDeduper(t)
	channel := &fakeChannel{}
	n := NewNotifier(testLookup(), deduper, channel, &fakeDLQ{}, DefaultConfig(), nil)
	ctx := context.Background()

	d1, _ := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(ctx, d1)
	require.Equal(t, 1, channel.count())

	mr.FastForward(2 * time.Hour)

	d2, _ := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(ctx, d2)
	assert.Equal(t, 2, channel.count(), "expired dedupe entry no longer suppresses")
}

func TestNotifierDedupeUnavailableStillDelivers(t *testing.T) {
	mr, deduper := setupRedisDeduper(t)
	mr.Close()

	channel := &fakeChannel{}
	n := NewNotifier(testLookup(), deduper, channel, &fakeDLQ{}, DefaultConfig(), nil)

	d, st := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(context.Background(), d)

	assert.True(t, st.acked)
	assert.Equal(t, 1, channel.count(), "dedupe outage never blocks a notification")
}

func TestNotifierMalformedGoesToDLQ(t *testing.T) {
	channel := &fakeChannel{}
	dlq := &fakeDLQ{}
	n := NewNotifier(testLookup(), nil, channel, dlq, DefaultConfig(), nil)

	st := &settlement{}
	d := &messaging.Delivery{
		Msg:     &messaging.Message{Subject: "registrations.decided", Data: []byte("{bad")},
		Attempt: 1,
		Ack:     func() error { st.acked = true; return nil },
		Nak:     func(time.Duration) error { st.naks++; return nil },
		Term:    func() error { st.termed = true; return nil },
	}
	n.Handle(context.Background(), d)

	assert.True(t, st.termed)
	assert.Equal(t, []string{ReasonMalformed}, dlq.reasons)
	assert.Zero(t, channel.count())
}

func TestNotifierDropsUnresolvableReferences(t *testing.T) {
	channel := &fakeChannel{}
	dlq := &fakeDLQ{}
	lookup := testLookup()
	delete(lookup.users, "user-1")
	n := NewNotifier(lookup, nil, channel, dlq, DefaultConfig(), nil)

	d, st := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(context.Background(), d)

	assert.True(t, st.termed, "decision that can never render is dropped")
	assert.Empty(t, dlq.reasons)
	assert.Zero(t, channel.count())
}

func TestNotifierTransientLookupFailureRetries(t *testing.T) {
	channel := &fakeChannel{}
	lookup := testLookup()
	lookup.err = errors.New("connection refused")
	n := NewNotifier(lookup, nil, channel, &fakeDLQ{}, Config{MaxDeliver: 3, NakDelay: time.Millisecond}, nil)

	d, st := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(context.Background(), d)

	assert.False(t, st.acked)
	assert.False(t, st.termed)
	assert.Equal(t, 1, st.naks)
}

func TestNotifierDispatchFailureRetriesThenDeadLetters(t *testing.T) {
	channel := &fakeChannel{err: errors.New("smtp unavailable")}
	dlq := &fakeDLQ{}
	cfg := Config{MaxDeliver: 3, NakDelay: time.Millisecond}
	n := NewNotifier(testLookup(), nil, channel, dlq, cfg, nil)
	ctx := context.Background()

	d1, st1 := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(ctx, d1)
	assert.Equal(t, 1, st1.naks)
	assert.Empty(t, dlq.reasons)

	d2, st2 := decisionDelivery(t, acceptedDecision(), 3)
	n.Handle(ctx, d2)
	assert.True(t, st2.termed)
	assert.Equal(t, []string{ReasonDispatchFailed}, dlq.reasons)
}

func TestNotifierMarksDedupeOnlyAfterSend(t *testing.T) {
	_, deduper := setupRedisDeduper(t)
	channel := &fakeChannel{err: errors.New("smtp unavailable")}
	n := NewNotifier(testLookup(), deduper, channel, &fakeDLQ{}, Config{MaxDeliver: 3, NakDelay: time.Millisecond}, nil)
	ctx := context.Background()

	d1, _ := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(ctx, d1)

	decision := acceptedDecision()
	seen, err := deduper.Seen(ctx, dedupeKey(decision))
	require.NoError(t, err)
	assert.False(t, seen, "failed dispatch must not mark the decision as notified")

	// The retry succeeds and marks.
	channel.err = nil
	d2, _ := decisionDelivery(t, acceptedDecision(), 2)
	n.Handle(ctx, d2)

	seen, err = deduper.Seen(ctx, dedupeKey(decision))
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestNotifierNewOutcomeIsNotADuplicate(t *testing.T) {
	_, deduper := setupRedisDeduper(t)
	channel := &fakeChannel{}
	n := NewNotifier(testLookup(), deduper, channel, &fakeDLQ{}, DefaultConfig(), nil)
	ctx := context.Background()

	rejected := acceptedDecision()
	rejected.Accepted = false
	d1, _ := decisionDelivery(t, rejected, 1)
	n.Handle(ctx, d1)
	require.Equal(t, 1, channel.count())

	// The correlation ID is deterministic over (event, user): after an
	// unregister frees a slot, a resubmission draws the same ID with the
	// opposite outcome. That decision must still be delivered.
	d2, st2 := decisionDelivery(t, acceptedDecision(), 1)
	n.Handle(ctx, d2)
	assert.True(t, st2.acked)
	require.Equal(t, 2, channel.count(), "changed outcome is a new notification")
	assert.Contains(t, channel.sent[1].Body, "accepted")

	// A redelivery of the accepted decision is still suppressed.
	d3, st3 := decisionDelivery(t, acceptedDecision(), 2)
	n.Handle(ctx, d3)
	assert.True(t, st3.acked)
	assert.Equal(t, 2, channel.count())
}

// ============================================================================
// Render Tests
// ============================================================================

func TestRender(t *testing.T) {
	event := &models.Event{Name: "Go Conference", Location: "Berlin", Date: "2026-10-01"}
	user := &models.User{Email: "alice@example.com"}

	n := Render(&models.RegistrationDecision{Accepted: true}, event, user)
	assert.Equal(t, "alice@example.com", n.To)
	assert.Equal(t, "Event Registration Result", n.Subject)
	assert.Contains(t, n.Body, "'Go Conference' has been accepted")
	assert.Contains(t, n.Body, "Where: Berlin")
	assert.Contains(t, n.Body, "When: 2026-10-01")

	bare := Render(&models.RegistrationDecision{}, &models.Event{Name: "X"}, user)
	assert.Contains(t, bare.Body, "rejected")
	assert.NotContains(t, bare.Body, "Where:")
}
