package repository

import (
	"context"
	"errors"

	"github.com/seatwise-systems/seatwise/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrEventNotFound        = errors.New("event not found")
	ErrAlreadyRegistered    = errors.New("registration already exists")
	ErrRegistrationNotFound = errors.New("registration not found")
)

// Repository is the durable system of record for users, the event catalog and
// committed registrations.
//
// The registration operations form the contract the admission processor
// depends on: CountRegistrations must read current state with no cache in
// between, and InsertRegistration must be atomic and constraint-checked by
// the store itself. ErrAlreadyRegistered from InsertRegistration is a normal,
// expected outcome, not a failure.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*models.Event, int, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error

	CountRegistrations(ctx context.Context, eventID string) (int, error)
	InsertRegistration(ctx context.Context, eventID, userID string) error
	RemoveRegistration(ctx context.Context, eventID, userID string) error
	GetRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error)
}
