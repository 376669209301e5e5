package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/seatwise-systems/seatwise/internal/models"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) (*PostgresRepository, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("seatwise_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create repository: %v", err)
	}

	cleanup := func() {
		repo.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return repo, cleanup
}

// runMigrations applies the SQL migrations from the migrations directory
func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pattern := filepath.Join("..", "..", "migrations", "*.up.sql")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		migrationSQL, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := db.Exec(string(migrationSQL)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}

func seedEvent(t *testing.T, repo *PostgresRepository, id string, capacity int) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.CreateEvent(context.Background(), &models.Event{
		ID:          id,
		Name:        "Test Event",
		MaxCapacity: capacity,
		Open:        true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}
}

// ============================================================================
// User Tests
// ============================================================================

func TestPostgresCreateUser(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user := &models.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed",
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := &models.User{
		ID:           "22222222-2222-2222-2222-222222222222",
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "hashed",
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, dup); err != ErrUserExists {
		t.Errorf("expected ErrUserExists for duplicate username, got %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}

	if _, err := repo.GetUserByID(ctx, "33333333-3333-3333-3333-333333333333"); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

// ============================================================================
// Registration Tests
// ============================================================================

func TestPostgresRegistrationLifecycle(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	eventID := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	userID := "11111111-1111-1111-1111-111111111111"
	seedEvent(t, repo, eventID, 2)

	count, err := repo.CountRegistrations(ctx, eventID)
	if err != nil {
		t.Fatalf("CountRegistrations failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 registrations, got %d", count)
	}

	if err := repo.InsertRegistration(ctx, eventID, userID); err != nil {
		t.Fatalf("InsertRegistration failed: %v", err)
	}

	// The unique constraint must reject the duplicate, not write a row.
	if err := repo.InsertRegistration(ctx, eventID, userID); err != ErrAlreadyRegistered {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}

	count, _ = repo.CountRegistrations(ctx, eventID)
	if count != 1 {
		t.Errorf("expected 1 registration after duplicate insert, got %d", count)
	}

	reg, err := repo.GetRegistration(ctx, eventID, userID)
	if err != nil {
		t.Fatalf("GetRegistration failed: %v", err)
	}
	if reg.EventID != eventID || reg.UserID != userID {
		t.Errorf("unexpected registration row: %+v", reg)
	}

	if err := repo.RemoveRegistration(ctx, eventID, userID); err != nil {
		t.Fatalf("RemoveRegistration failed: %v", err)
	}
	if err := repo.RemoveRegistration(ctx, eventID, userID); err != ErrRegistrationNotFound {
		t.Errorf("expected ErrRegistrationNotFound, got %v", err)
	}
	if _, err := repo.GetRegistration(ctx, eventID, userID); err != ErrRegistrationNotFound {
		t.Errorf("expected ErrRegistrationNotFound after removal, got %v", err)
	}
}

func TestPostgresConcurrentInsertSameKey(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	eventID := "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	userID := "11111111-1111-1111-1111-111111111111"
	seedEvent(t, repo, eventID, 10)

	// Race the same key from several connections; the constraint allows
	// exactly one row through.
	const racers = 8
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func() {
			errs <- repo.InsertRegistration(ctx, eventID, userID)
		}()
	}

	wins := 0
	for i := 0; i < racers; i++ {
		if err := <-errs; err == nil {
			wins++
		} else if err != ErrAlreadyRegistered {
			t.Errorf("unexpected insert error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winning insert, got %d", wins)
	}

	count, _ := repo.CountRegistrations(ctx, eventID)
	if count != 1 {
		t.Errorf("expected 1 committed row, got %d", count)
	}
}

// ============================================================================
// Event Tests
// ============================================================================

func TestPostgresEventCRUD(t *testing.T) {
	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	eventID := "cccccccc-cccc-cccc-cccc-cccccccccccc"
	seedEvent(t, repo, eventID, 5)

	event, err := repo.GetEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if event.MaxCapacity != 5 || !event.Open {
		t.Errorf("unexpected event: %+v", event)
	}

	event.Name = "Renamed"
	event.Open = false
	event.UpdatedAt = time.Now().UTC()
	if err := repo.UpdateEvent(ctx, event); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}

	got, _ := repo.GetEvent(ctx, eventID)
	if got.Name != "Renamed" || got.Open {
		t.Errorf("update not persisted: %+v", got)
	}

	events, total, err := repo.ListEvents(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if total != 1 || len(events) != 1 {
		t.Errorf("expected 1 event, got total=%d len=%d", total, len(events))
	}

	// Deleting the event cascades to its registrations.
	userID := "11111111-1111-1111-1111-111111111111"
	if err := repo.InsertRegistration(ctx, eventID, userID); err != nil {
		t.Fatalf("InsertRegistration failed: %v", err)
	}
	if err := repo.DeleteEvent(ctx, eventID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	count, _ := repo.CountRegistrations(ctx, eventID)
	if count != 0 {
		t.Errorf("expected cascade delete of registrations, got %d", count)
	}
}
