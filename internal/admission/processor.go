// Package admission implements the registration admission pipeline: it turns
// a per-event stream of registration attempts into a capacity-respecting,
// exactly-once-committed set of registrants.
//
// Correctness rests on two independent layers. The dispatcher guarantees that
// at most one worker handles a given event at a time, which makes the
// count-then-insert sequence safe without locks. The unique constraint on
// (event_id, user_id) in the store is the backstop if that guarantee is ever
// violated.
package admission

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/seatwise-systems/seatwise/internal/logging"
	"github.com/seatwise-systems/seatwise/internal/messaging"
	"github.com/seatwise-systems/seatwise/internal/metrics"
	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
)

// Outcome labels for decisions, used in logs and metrics.
const (
	OutcomeCommitted = "committed"
	OutcomeDuplicate = "duplicate"
	OutcomeConflict  = "conflict"
	OutcomeRejected  = "rejected"
)

// Dead-letter reasons.
const (
	ReasonMalformed = "malformed"
	ReasonExhausted = "exhausted"
)

// Store is the slice of the durable store the processor depends on.
// CountRegistrations must read live state and InsertRegistration must be
// atomic with the uniqueness constraint checked server-side.
type Store interface {
	GetRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error)
	CountRegistrations(ctx context.Context, eventID string) (int, error)
	InsertRegistration(ctx context.Context, eventID, userID string) error
}

// DecisionPublisher emits admission decisions.
type DecisionPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// DeadLetter records messages that cannot be processed.
type DeadLetter interface {
	Write(ctx context.Context, reason string, msg *messaging.Message, attempts int, cause error) error
}

// Config holds processor tuning.
type Config struct {
	// MaxDeliver is the delivery budget per message. A message still failing
	// transiently on its MaxDeliver-th attempt is dead-lettered instead of
	// retried again.
	MaxDeliver int

	// NakDelay is the redelivery delay requested on transient failure.
	NakDelay time.Duration
}

// DefaultConfig returns sensible processor defaults.
func DefaultConfig() Config {
	return Config{
		MaxDeliver: 5,
		NakDelay:   5 * time.Second,
	}
}

// Processor makes admission decisions for registration attempts.
type Processor struct {
	store     Store
	publisher DecisionPublisher
	dlq       DeadLetter
	cfg       Config
	logger    *logging.Logger
}

// NewProcessor creates an admission processor.
func NewProcessor(store Store, publisher DecisionPublisher, dlq DeadLetter, cfg Config, logger *logging.Logger) *Processor {
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = DefaultConfig().MaxDeliver
	}
	if cfg.NakDelay <= 0 {
		cfg.NakDelay = DefaultConfig().NakDelay
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		store:     store,
		publisher: publisher,
		dlq:       dlq,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle processes one delivery end to end and settles it: Ack on a published
// decision, Nak on transient failure within budget, Term after dead-lettering
// malformed or exhausted messages. Redelivery is always safe because decisions
// are re-derived idempotently.
func (p *Processor) Handle(ctx context.Context, d *messaging.Delivery) {
	start := time.Now()
	defer func() {
		metrics.AdmissionDuration.Observe(time.Since(start).Seconds())
	}()

	var req models.RegistrationRequest
	if err := json.Unmarshal(d.Msg.Data, &req); err != nil {
		p.deadLetter(ctx, d, ReasonMalformed, err)
		return
	}
	if !req.Valid() {
		p.deadLetter(ctx, d, ReasonMalformed, errors.New("missing required fields"))
		return
	}

	decision, outcome, err := p.decide(ctx, &req)
	if err != nil {
		p.retryOrDeadLetter(ctx, d, &req, err)
		return
	}

	data, err := json.Marshal(decision)
	if err != nil {
		// Decision payloads are plain structs; a marshal failure is a bug,
		// not a transient fault.
		p.deadLetter(ctx, d, ReasonMalformed, err)
		return
	}

	if err := p.publisher.Publish(ctx, messaging.SubjectRegistrationsDecided, data); err != nil {
		// The decision is re-derivable, so leaving the message unacked and
		// retrying the whole message is safe.
		p.retryOrDeadLetter(ctx, d, &req, err)
		return
	}

	metrics.DecisionsTotal.WithLabelValues(outcome).Inc()
	p.logger.InfoContext(ctx, "admission decided",
		logging.EventID(req.EventID),
		logging.UserID(req.UserID),
		logging.CorrelationID(req.CorrelationID),
		"outcome", outcome,
		"accepted", decision.Accepted,
	)

	if err := d.Ack(); err != nil {
		p.logger.WarnContext(ctx, "ack failed", logging.Error(err))
	}
}

// decide runs the per-message admission algorithm and returns the decision
// and its outcome label. An error return means a transient store failure;
// the message must be redelivered.
func (p *Processor) decide(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationDecision, string, error) {
	// Step 1: idempotency. An existing row means this is a redelivery or a
	// duplicate submission of an already-admitted request; re-emit the same
	// accepted decision without recounting.
	_, err := p.store.GetRegistration(ctx, req.EventID, req.UserID)
	switch {
	case err == nil:
		return p.decision(req, true), OutcomeDuplicate, nil
	case !errors.Is(err, repository.ErrRegistrationNotFound):
		return nil, "", err
	}

	// Step 2: live capacity read. The dispatcher makes this worker the only
	// writer for the event, so the count cannot be raced by a sibling.
	count, err := p.store.CountRegistrations(ctx, req.EventID)
	if err != nil {
		return nil, "", err
	}

	// Step 3: capacity exhausted is a business outcome, not an error.
	if count >= req.MaxCapacity {
		return p.decision(req, false), OutcomeRejected, nil
	}

	// Step 4: atomic commit. A conflict means the row appeared out of band;
	// fold it into an accepted decision, exactly like step 1.
	switch err := p.store.InsertRegistration(ctx, req.EventID, req.UserID); {
	case err == nil:
		return p.decision(req, true), OutcomeCommitted, nil
	case errors.Is(err, repository.ErrAlreadyRegistered):
		metrics.StoreConflictsTotal.Inc()
		return p.decision(req, true), OutcomeConflict, nil
	default:
		return nil, "", err
	}
}

func (p *Processor) decision(req *models.RegistrationRequest, accepted bool) *models.RegistrationDecision {
	return &models.RegistrationDecision{
		EventID:       req.EventID,
		UserID:        req.UserID,
		CorrelationID: req.CorrelationID,
		Accepted:      accepted,
		DecidedAt:     time.Now().UTC(),
	}
}

func (p *Processor) retryOrDeadLetter(ctx context.Context, d *messaging.Delivery, req *models.RegistrationRequest, cause error) {
	if d.Attempt >= p.cfg.MaxDeliver {
		p.deadLetter(ctx, d, ReasonExhausted, cause)
		return
	}

	metrics.RedeliveriesTotal.Inc()
	p.logger.WarnContext(ctx, "transient failure, requesting redelivery",
		logging.EventID(req.EventID),
		logging.UserID(req.UserID),
		logging.Attempt(d.Attempt),
		logging.Error(cause),
	)
	if err := d.Nak(p.cfg.NakDelay); err != nil {
		p.logger.WarnContext(ctx, "nak failed", logging.Error(err))
	}
}

func (p *Processor) deadLetter(ctx context.Context, d *messaging.Delivery, reason string, cause error) {
	if p.dlq != nil {
		if err := p.dlq.Write(ctx, reason, d.Msg, d.Attempt, cause); err != nil {
			// The DLQ write failed; keep the message in the stream so it is
			// not lost.
			p.logger.ErrorContext(ctx, "dead-letter write failed", logging.Error(err))
			if err := d.Nak(p.cfg.NakDelay); err != nil {
				p.logger.WarnContext(ctx, "nak failed", logging.Error(err))
			}
			return
		}
	}

	if err := d.Term(); err != nil {
		p.logger.WarnContext(ctx, "term failed", logging.Error(err))
	}
}
