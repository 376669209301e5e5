package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise-systems/seatwise/internal/models"
	"github.com/seatwise-systems/seatwise/internal/repository"
	"github.com/seatwise-systems/seatwise/pkg/tokens"
)

func newAccountsForTest() (*AccountService, *repository.InMemoryRepository) {
	repo := repository.NewInMemoryRepository()
	tg := tokens.NewTokenGenerator("test-secret-for-service-tests", 15*time.Minute)
	return NewAccountService(repo, tg, 15*time.Minute), repo
}

func TestCreateAccountHashesPassword(t *testing.T) {
	svc, _ := newAccountsForTest()
	ctx := context.Background()

	user, err := svc.CreateAccount(ctx, &models.CreateAccountRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "plaintext-secret",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, []string{"user"}, user.Roles, "default role is user")
	assert.NotEqual(t, "plaintext-secret", user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "plaintext")
}

func TestCreateAccountValidation(t *testing.T) {
	svc, _ := newAccountsForTest()
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, &models.CreateAccountRequest{Username: "x"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.CreateAccount(ctx, &models.CreateAccountRequest{
		Username: "x", Email: "x@y.z", Password: "pw", Role: "superuser",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.CreateAccount(ctx, &models.CreateAccountRequest{
		Username: "x", Email: "x@y.z", Password: "pw", Role: "provider",
	})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, _ := newAccountsForTest()
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, &models.CreateAccountRequest{
		Username: "alice", Email: "alice@example.com", Password: "correct-password",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "correct-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "alice", resp.User.Username)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	_, err = svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown user looks identical to a bad password.
	_, err = svc.Login(ctx, &models.LoginRequest{Username: "nobody", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCatalogCreateEvent(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	svc := NewCatalogService(repo)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, "org-1", &models.CreateEventRequest{
		Name:        "Go Conference",
		MaxCapacity: 100,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "org-1", event.OrganizerID)
	assert.True(t, event.Open, "events default to open")

	_, err = svc.CreateEvent(ctx, "org-1", &models.CreateEventRequest{MaxCapacity: 1})
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = svc.CreateEvent(ctx, "org-1", &models.CreateEventRequest{Name: "X", MaxCapacity: -2})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	// Zero-capacity events are legal; admission rejects every attempt.
	zero, err := svc.CreateEvent(ctx, "org-1", &models.CreateEventRequest{Name: "Full", MaxCapacity: 0})
	require.NoError(t, err)
	assert.Zero(t, zero.MaxCapacity)
}

func TestCatalogUpdateEventPartial(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	svc := NewCatalogService(repo)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, "org-1", &models.CreateEventRequest{
		Name: "Original", Location: "Berlin", MaxCapacity: 10,
	})
	require.NoError(t, err)

	newName := "Renamed"
	closed := false
	updated, err := svc.UpdateEvent(ctx, event.ID, &models.UpdateEventRequest{
		Name: &newName,
		Open: &closed,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.Open)
	assert.Equal(t, "Berlin", updated.Location, "unset fields keep their values")
	assert.Equal(t, 10, updated.MaxCapacity)

	bad := -1
	_, err = svc.UpdateEvent(ctx, event.ID, &models.UpdateEventRequest{MaxCapacity: &bad})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = svc.UpdateEvent(ctx, "missing", &models.UpdateEventRequest{Name: &newName})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestCatalogRegistrationCount(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	svc := NewCatalogService(repo)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, "org-1", &models.CreateEventRequest{Name: "X", MaxCapacity: 5})
	require.NoError(t, err)

	require.NoError(t, repo.InsertRegistration(ctx, event.ID, "u1"))
	require.NoError(t, repo.InsertRegistration(ctx, event.ID, "u2"))

	count, err := svc.RegistrationCount(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count.Registered)
	assert.Equal(t, 5, count.MaxCapacity)

	require.NoError(t, svc.Unregister(ctx, event.ID, "u1"))
	count, _ = svc.RegistrationCount(ctx, event.ID)
	assert.Equal(t, 1, count.Registered)

	assert.ErrorIs(t, svc.Unregister(ctx, event.ID, "u1"), repository.ErrRegistrationNotFound)
	_, err = svc.RegistrationCount(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}
