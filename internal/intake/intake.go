// Package intake validates registration attempts and enqueues them on the
// message bus. Intake never writes a committed registration itself: direct
// writes from concurrent API callers would reintroduce the check-then-commit
// race the admission processor exists to eliminate.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seatwise-systems/seatwise/internal/logging"
	"github.com/seatwise-systems/seatwise/internal/messaging"
	"github.com/seatwise-systems/seatwise/internal/metrics"
	"github.com/seatwise-systems/seatwise/internal/models"
)

// ErrEventClosed is returned when the event exists but is not open for
// registration. Event-not-found passes through from the catalog.
var ErrEventClosed = errors.New("event is closed for registration")

// Catalog supplies event capacity and open/closed status. Read-only.
type Catalog interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

// StreamPublisher publishes to the durable registration stream.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// correlationNamespace is the fixed UUID namespace for deriving correlation
// IDs. Stable across releases so resubmissions keep the same identity.
var correlationNamespace = uuid.MustParse("8f0be2bd-3c0f-4a22-9d1a-6e6f64a5c1de")

// CorrelationID derives the stable correlation ID for a registration attempt.
// Deterministic over (eventID, userID) so redelivery and resubmission of the
// same logical request are recognizable downstream.
func CorrelationID(eventID, userID string) string {
	return uuid.NewSHA1(correlationNamespace, []byte(eventID+":"+userID)).String()
}

// Service accepts registration attempts and hands them to the transport.
type Service struct {
	catalog   Catalog
	publisher StreamPublisher
	logger    *logging.Logger
}

func NewService(catalog Catalog, publisher StreamPublisher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit validates the attempt and publishes it to the per-event subject.
// The returned acknowledgment means "submitted", never "accepted": admission
// is asynchronous and the outcome reaches the user through the notifier.
func (s *Service) Submit(ctx context.Context, eventID, userID string) (*models.SubmitResponse, error) {
	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if !event.Open {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrEventClosed
	}

	// MaxCapacity is snapshotted here as a hint; the committed count in the
	// store stays authoritative.
	req := models.RegistrationRequest{
		EventID:       eventID,
		UserID:        userID,
		MaxCapacity:   event.MaxCapacity,
		CorrelationID: CorrelationID(eventID, userID),
		SubmittedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal registration request: %w", err)
	}

	subject := messaging.RegistrationSubmitSubject(eventID)
	if err := s.publisher.Publish(ctx, subject, data); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("publish registration request: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues("submitted").Inc()
	s.logger.InfoContext(ctx, "registration submitted",
		logging.EventID(eventID),
		logging.UserID(userID),
		logging.CorrelationID(req.CorrelationID),
		logging.Subject(subject),
	)

	return &models.SubmitResponse{
		Status:        "submitted",
		EventID:       eventID,
		CorrelationID: req.CorrelationID,
	}, nil
}
