package models

import "time"

type CreateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	MaxCapacity int    `json:"max_capacity"`
	Open        *bool  `json:"open_for_registration,omitempty"`
}

type UpdateEventRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	Date        *string `json:"date,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty"`
	Open        *bool   `json:"open_for_registration,omitempty"`
}

// SubmitResponse acknowledges that a registration attempt was enqueued.
// The accept/reject outcome arrives later through the notifier, never on
// this call path.
type SubmitResponse struct {
	Status        string `json:"status"`
	EventID       string `json:"event_id"`
	CorrelationID string `json:"correlation_id"`
}

type EventListResponse struct {
	Events []*Event `json:"events"`
	Total  int      `json:"total"`
}

type RegistrationCountResponse struct {
	EventID     string `json:"event_id"`
	Registered  int    `json:"registered"`
	MaxCapacity int    `json:"max_capacity"`
}
