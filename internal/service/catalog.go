package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
)

var (
	ErrInvalidCapacity = errors.New("max capacity must not be negative")
	ErrMissingName     = errors.New("event name is required")
)

// CatalogService manages the event catalog. It never touches committed
// registrations except for the explicit unregister flow and read-only counts.
type CatalogService struct {
	repo repository.Repository
}

func NewCatalogService(repo repository.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) CreateEvent(ctx context.Context, organizerID string, req *models.CreateEventRequest) (*models.Event, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.MaxCapacity < 0 {
		return nil, ErrInvalidCapacity
	}

	open := true
	if req.Open != nil {
		open = *req.Open
	}

	eventID, _ := uuid.NewV7()
	now := time.Now().UTC()
	event := &models.Event{
		ID:          eventID.String(),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		OrganizerID: organizerID,
		MaxCapacity: req.MaxCapacity,
		Open:        open,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (s *CatalogService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.repo.GetEvent(ctx, id)
}

func (s *CatalogService) ListEvents(ctx context.Context, limit, offset int) ([]*models.Event, int, error) {
	return s.repo.ListEvents(ctx, limit, offset)
}

func (s *CatalogService) UpdateEvent(ctx context.Context, id string, req *models.UpdateEventRequest) (*models.Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.MaxCapacity != nil {
		if *req.MaxCapacity < 0 {
			return nil, ErrInvalidCapacity
		}
		event.MaxCapacity = *req.MaxCapacity
	}
	if req.Open != nil {
		event.Open = *req.Open
	}
	event.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (s *CatalogService) DeleteEvent(ctx context.Context, id string) error {
	return s.repo.DeleteEvent(ctx, id)
}

// RegistrationCount returns the live committed count alongside the configured
// capacity.
func (s *CatalogService) RegistrationCount(ctx context.Context, eventID string) (*models.RegistrationCountResponse, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return &models.RegistrationCountResponse{
		EventID:     eventID,
		Registered:  count,
		MaxCapacity: event.MaxCapacity,
	}, nil
}

// Unregister removes a committed registration, freeing a slot. The admission
// processor tolerates the count shrinking because it re-reads the count on
// every message.
func (s *CatalogService) Unregister(ctx context.Context, eventID, userID string) error {
	return s.repo.RemoveRegistration(ctx, eventID, userID)
}
