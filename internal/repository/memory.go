package repository

import (
	"context"
	"sync"
	"time"

	"github.com/seatwise-systems/seatwise/internal/models"
)

// InMemoryRepository is a map-backed Repository for development and tests.
// The registration map is keyed by (eventID, userID), mirroring the unique
// constraint the Postgres schema enforces.
type InMemoryRepository struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	usersByName   map[string]*models.User
	events        map[string]*models.Event
	registrations map[regKey]*models.Registration
}

type regKey struct {
	eventID string
	userID  string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:         make(map[string]*models.User),
		usersByName:   make(map[string]*models.User),
		events:        make(map[string]*models.Event),
		registrations: make(map[regKey]*models.Registration),
	}
}

func (r *InMemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByName[user.Username]; exists {
		return ErrUserExists
	}
	r.users[user.ID] = user
	r.usersByName[user.Username] = user
	return nil
}

func (r *InMemoryRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if user, ok := r.usersByName[username]; ok {
		return user, nil
	}
	return nil, ErrUserNotFound
}

func (r *InMemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, ErrUserNotFound
}

func (r *InMemoryRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ID] = event
	return nil
}

func (r *InMemoryRepository) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if event, ok := r.events[id]; ok {
		return event, nil
	}
	return nil, ErrEventNotFound
}

func (r *InMemoryRepository) ListEvents(ctx context.Context, limit, offset int) ([]*models.Event, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Event, 0, len(r.events))
	for _, e := range r.events {
		all = append(all, e)
	}

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *InMemoryRepository) UpdateEvent(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; !exists {
		return ErrEventNotFound
	}
	r.events[event.ID] = event
	return nil
}

func (r *InMemoryRepository) DeleteEvent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[id]; !exists {
		return ErrEventNotFound
	}
	delete(r.events, id)
	// Cascade, matching the foreign key in the Postgres schema.
	for key := range r.registrations {
		if key.eventID == id {
			delete(r.registrations, key)
		}
	}
	return nil
}

func (r *InMemoryRepository) CountRegistrations(ctx context.Context, eventID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for key := range r.registrations {
		if key.eventID == eventID {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryRepository) InsertRegistration(ctx context.Context, eventID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := regKey{eventID: eventID, userID: userID}
	if _, exists := r.registrations[key]; exists {
		return ErrAlreadyRegistered
	}
	r.registrations[key] = &models.Registration{
		EventID:     eventID,
		UserID:      userID,
		CommittedAt: time.Now().UTC(),
	}
	return nil
}

func (r *InMemoryRepository) RemoveRegistration(ctx context.Context, eventID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := regKey{eventID: eventID, userID: userID}
	if _, exists := r.registrations[key]; !exists {
		return ErrRegistrationNotFound
	}
	delete(r.registrations, key)
	return nil
}

func (r *InMemoryRepository) GetRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if reg, ok := r.registrations[regKey{eventID: eventID, userID: userID}]; ok {
		return reg, nil
	}
	return nil, ErrRegistrationNotFound
}
