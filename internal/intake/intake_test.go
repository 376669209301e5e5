package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
)

type fakeCatalog struct {
	events map[string]*models.Event
	err    error
}

func (c *fakeCatalog) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if c.err != nil {
		return nil, c.err
	}
	if e, ok := c.events[id]; ok {
		return e, nil
	}
	return nil, repository.ErrEventNotFound
}

type capturingPublisher struct {
	subject string
	data    []byte
	err     error
	calls   int
}

func (p *capturingPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.subject = subject
	p.data = data
	return nil
}

func openEvent(id string, capacity int) *models.Event {
	return &models.Event{ID: id, Name: "Test Event", MaxCapacity: capacity, Open: true}
}

func TestSubmitPublishesToEventSubject(t *testing.T) {
	catalog := &fakeCatalog{events: map[string]*models.Event{
		"evt-1": openEvent("evt-1", 10),
	}}
	pub := &capturingPublisher{}
	svc := NewService(catalog, pub, nil)

	resp, err := svc.Submit(context.Background(), "evt-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "submitted", resp.Status)
	assert.Equal(t, "evt-1", resp.EventID)
	assert.Equal(t, "registrations.submit.evt-1", pub.subject)

	var req models.RegistrationRequest
	require.NoError(t, json.Unmarshal(pub.data, &req))
	assert.Equal(t, "evt-1", req.EventID)
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, 10, req.MaxCapacity, "capacity snapshot travels with the attempt")
	assert.Equal(t, resp.CorrelationID, req.CorrelationID)
	assert.False(t, req.SubmittedAt.IsZero())
}

func TestSubmitClosedEvent(t *testing.T) {
	catalog := &fakeCatalog{events: map[string]*models.Event{
		"evt-1": {ID: "evt-1", MaxCapacity: 10, Open: false},
	}}
	pub := &capturingPublisher{}
	svc := NewService(catalog, pub, nil)

	_, err := svc.Submit(context.Background(), "evt-1", "user-1")
	assert.ErrorIs(t, err, ErrEventClosed)
	assert.Zero(t, pub.calls, "nothing published for a closed event")
}

func TestSubmitUnknownEvent(t *testing.T) {
	catalog := &fakeCatalog{events: map[string]*models.Event{}}
	pub := &capturingPublisher{}
	svc := NewService(catalog, pub, nil)

	_, err := svc.Submit(context.Background(), "evt-missing", "user-1")
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	assert.Zero(t, pub.calls)
}

func TestSubmitPublishFailure(t *testing.T) {
	catalog := &fakeCatalog{events: map[string]*models.Event{
		"evt-1": openEvent("evt-1", 10),
	}}
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := NewService(catalog, pub, nil)

	_, err := svc.Submit(context.Background(), "evt-1", "user-1")
	assert.Error(t, err)
}

func TestCorrelationIDDeterministic(t *testing.T) {
	a := CorrelationID("evt-1", "user-1")
	b := CorrelationID("evt-1", "user-1")
	assert.Equal(t, a, b, "same pair derives the same ID")

	assert.NotEqual(t, a, CorrelationID("evt-1", "user-2"))
	assert.NotEqual(t, a, CorrelationID("evt-2", "user-1"))

	// Resubmission produces an identical message identity end to end.
	catalog := &fakeCatalog{events: map[string]*models.Event{
		"evt-1": openEvent("evt-1", 10),
	}}
	pub := &capturingPublisher{}
	svc := NewService(catalog, pub, nil)

	first, err := svc.Submit(context.Background(), "evt-1", "user-1")
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), "evt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.CorrelationID, second.CorrelationID)
}
