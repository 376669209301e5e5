// Package notify consumes admission decisions and informs users of their
// outcome through an external notification channel.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/seatwise-systems/seatwise/internal/logging"
	"github.com/seatwise-systems/seatwise/internal/messaging"
	"github.com/seatwise-systems/seatwise/internal/metrics"
	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
)

// Dead-letter reasons.
const (
	ReasonMalformed      = "malformed"
	ReasonDispatchFailed = "dispatch_failed"
)

// Lookup resolves event display info and user contact info. Read-only.
type Lookup interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// DeadLetter records messages that cannot be processed.
type DeadLetter interface {
	Write(ctx context.Context, reason string, msg *messaging.Message, attempts int, cause error) error
}

// Config holds notifier tuning.
type Config struct {
	// MaxDeliver bounds dispatch retries; past it the decision is
	// dead-lettered.
	MaxDeliver int

	// NakDelay is the redelivery delay requested on dispatch failure.
	NakDelay time.Duration
}

// DefaultConfig returns sensible notifier defaults.
func DefaultConfig() Config {
	return Config{
		MaxDeliver: 5,
		NakDelay:   10 * time.Second,
	}
}

// Notifier turns admission decisions into user notifications.
type Notifier struct {
	lookup  Lookup
	dedupe  Deduper
	channel Channel
	dlq     DeadLetter
	cfg     Config
	logger  *logging.Logger
}

// NewNotifier creates a decision notifier. dedupe may be nil, in which case
// every delivery is dispatched (duplicate notifications are acceptable).
func NewNotifier(lookup Lookup, dedupe Deduper, channel Channel, dlq DeadLetter, cfg Config, logger *logging.Logger) *Notifier {
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = DefaultConfig().MaxDeliver
	}
	if cfg.NakDelay <= 0 {
		cfg.NakDelay = DefaultConfig().NakDelay
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{
		lookup:  lookup,
		dedupe:  dedupe,
		channel: channel,
		dlq:     dlq,
		cfg:     cfg,
		logger:  logger,
	}
}

// Handle processes one decision delivery and settles it. Duplicate decisions
// (same correlation ID and outcome) are suppressed best-effort; lookup
// failures against the catalog or directory are data-integrity issues and
// drop the message; dispatch failures retry within the delivery budget and
// then dead-letter.
func (n *Notifier) Handle(ctx context.Context, d *messaging.Delivery) {
	var decision models.RegistrationDecision
	if err := json.Unmarshal(d.Msg.Data, &decision); err != nil {
		n.deadLetter(ctx, d, ReasonMalformed, err)
		return
	}
	if decision.EventID == "" || decision.UserID == "" || decision.CorrelationID == "" {
		n.deadLetter(ctx, d, ReasonMalformed, errors.New("missing required fields"))
		return
	}

	if n.dedupe != nil {
		seen, err := n.dedupe.Seen(ctx, dedupeKey(&decision))
		if err != nil {
			// Best-effort: an unavailable dedupe cache never blocks delivery.
			n.logger.WarnContext(ctx, "dedupe unavailable", logging.Error(err))
		} else if seen {
			metrics.NotificationsDeduped.Inc()
			n.logger.InfoContext(ctx, "duplicate decision suppressed",
				logging.CorrelationID(decision.CorrelationID))
			n.ack(ctx, d)
			return
		}
	}

	event, err := n.lookup.GetEvent(ctx, decision.EventID)
	if err != nil {
		n.handleLookupError(ctx, d, &decision, err)
		return
	}
	user, err := n.lookup.GetUserByID(ctx, decision.UserID)
	if err != nil {
		n.handleLookupError(ctx, d, &decision, err)
		return
	}

	notification := Render(&decision, event, user)
	if err := n.channel.Send(ctx, notification); err != nil {
		metrics.NotificationsTotal.WithLabelValues(n.channel.Type(), "error").Inc()
		if d.Attempt >= n.cfg.MaxDeliver {
			n.deadLetter(ctx, d, ReasonDispatchFailed, err)
			return
		}
		n.logger.WarnContext(ctx, "dispatch failed, requesting redelivery",
			logging.CorrelationID(decision.CorrelationID),
			logging.Attempt(d.Attempt),
			logging.Error(err),
		)
		if err := d.Nak(n.cfg.NakDelay); err != nil {
			n.logger.WarnContext(ctx, "nak failed", logging.Error(err))
		}
		return
	}

	metrics.NotificationsTotal.WithLabelValues(n.channel.Type(), "sent").Inc()
	n.logger.InfoContext(ctx, "decision notified",
		logging.EventID(decision.EventID),
		logging.UserID(decision.UserID),
		logging.CorrelationID(decision.CorrelationID),
		"accepted", decision.Accepted,
	)

	if n.dedupe != nil {
		if err := n.dedupe.Mark(ctx, dedupeKey(&decision)); err != nil {
			n.logger.WarnContext(ctx, "dedupe mark failed", logging.Error(err))
		}
	}

	n.ack(ctx, d)
}

// dedupeKey qualifies the correlation ID with the outcome. The correlation ID
// is deterministic over (event, user), so after an unregister the same user
// can legitimately draw a second decision with the opposite outcome; only a
// repeat of the same outcome is a duplicate.
func dedupeKey(decision *models.RegistrationDecision) string {
	if decision.Accepted {
		return decision.CorrelationID + ":accepted"
	}
	return decision.CorrelationID + ":rejected"
}

// handleLookupError distinguishes missing reference data (drop, the decision
// can never be rendered) from transient store failure (redeliver).
func (n *Notifier) handleLookupError(ctx context.Context, d *messaging.Delivery, decision *models.RegistrationDecision, err error) {
	if errors.Is(err, repository.ErrEventNotFound) || errors.Is(err, repository.ErrUserNotFound) {
		n.logger.ErrorContext(ctx, "dropping decision with unresolvable references",
			logging.EventID(decision.EventID),
			logging.UserID(decision.UserID),
			logging.CorrelationID(decision.CorrelationID),
			logging.Error(err),
		)
		if termErr := d.Term(); termErr != nil {
			n.logger.WarnContext(ctx, "term failed", logging.Error(termErr))
		}
		return
	}

	if d.Attempt >= n.cfg.MaxDeliver {
		n.deadLetter(ctx, d, ReasonDispatchFailed, err)
		return
	}
	if nakErr := d.Nak(n.cfg.NakDelay); nakErr != nil {
		n.logger.WarnContext(ctx, "nak failed", logging.Error(nakErr))
	}
}

func (n *Notifier) ack(ctx context.Context, d *messaging.Delivery) {
	if err := d.Ack(); err != nil {
		n.logger.WarnContext(ctx, "ack failed", logging.Error(err))
	}
}

func (n *Notifier) deadLetter(ctx context.Context, d *messaging.Delivery, reason string, cause error) {
	if n.dlq != nil {
		if err := n.dlq.Write(ctx, reason, d.Msg, d.Attempt, cause); err != nil {
			n.logger.ErrorContext(ctx, "dead-letter write failed", logging.Error(err))
			if nakErr := d.Nak(n.cfg.NakDelay); nakErr != nil {
				n.logger.WarnContext(ctx, "nak failed", logging.Error(nakErr))
			}
			return
		}
	}
	if err := d.Term(); err != nil {
		n.logger.WarnContext(ctx, "term failed", logging.Error(err))
	}
}

// Render builds the user-facing notification for a decision.
func Render(decision *models.RegistrationDecision, event *models.Event, user *models.User) *Notification {
	outcome := "rejected"
	if decision.Accepted {
		outcome = "accepted"
	}

	body := fmt.Sprintf("Your registration for event '%s' has been %s.", event.Name, outcome)
	if event.Location != "" || event.Date != "" {
		body += fmt.Sprintf("\n\nWhere: %s\nWhen: %s", event.Location, event.Date)
	}

	return &Notification{
		To:      user.Email,
		Subject: "Event Registration Result",
		Body:    body,
	}
}
