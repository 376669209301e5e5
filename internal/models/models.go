// Package models defines the entities and message payloads shared by the
// SeatWise services.
package models

import "time"

// Event is a catalog entry for a capacity-limited event.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	OrganizerID string    `json:"organizer_id"`
	MaxCapacity int       `json:"max_capacity"`
	Open        bool      `json:"open_for_registration"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is an account that can organize or register for events.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// RegistrationRequest is a registration attempt in flight on the message bus.
// It is created by intake, consumed by the admission processor and never
// mutated. MaxCapacity is a snapshot taken at submission time; the processor
// treats it as the capacity to enforce for this attempt.
type RegistrationRequest struct {
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	MaxCapacity   int       `json:"max_capacity"`
	CorrelationID string    `json:"correlation_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Valid reports whether the request carries every field the processor needs.
// A request failing this check is malformed and goes straight to the
// dead-letter queue.
func (r *RegistrationRequest) Valid() bool {
	return r.EventID != "" && r.UserID != "" && r.CorrelationID != "" && r.MaxCapacity >= 0
}

// RegistrationDecision is the admission outcome for one registration attempt.
// Logically created exactly once per attempt; on redelivery the processor
// re-derives an equivalent decision rather than recomputing admission.
type RegistrationDecision struct {
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	CorrelationID string    `json:"correlation_id"`
	Accepted      bool      `json:"accepted"`
	DecidedAt     time.Time `json:"decided_at"`
}

// Registration is a committed registration row. The (EventID, UserID) pair is
// unique in the durable store; that constraint is the correctness backstop
// for the capacity invariant.
type Registration struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	CommittedAt time.Time `json:"committed_at"`
}
