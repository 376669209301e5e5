// Package seeder generates demo accounts, events and registration traffic
// against a running registry. Useful for exercising the admission pipeline
// with realistic contention: many users racing for a few capacity slots.
package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/seatwise-systems/seatwise/internal/cli/client"
	"github.com/seatwise-systems/seatwise/internal/models"
)

// Config controls the generated data set.
type Config struct {
	APIURL      string
	Events      int
	Users       int
	MinCapacity int
	MaxCapacity int
	// Oversubscribe registers every user for every event, forcing
	// rejections once capacities fill.
	Oversubscribe bool
	Seed          int64
}

// DefaultConfig returns a small data set with contention on every event.
func DefaultConfig() Config {
	return Config{
		Events:        5,
		Users:         25,
		MinCapacity:   3,
		MaxCapacity:   10,
		Oversubscribe: true,
	}
}

// Result summarizes a seeding run.
type Result struct {
	Provider    string
	Events      []string
	Users       int
	Submissions int
	Failures    int
}

// Run seeds the registry. It creates one provider with a set of events, a
// pool of user accounts, and submits registrations for each user.
func Run(cfg Config) (*Result, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if cfg.Seed != 0 {
		gofakeit.Seed(cfg.Seed)
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	if cfg.Events <= 0 || cfg.Users <= 0 {
		return nil, fmt.Errorf("events and users must be positive")
	}
	if cfg.MinCapacity <= 0 || cfg.MaxCapacity < cfg.MinCapacity {
		return nil, fmt.Errorf("invalid capacity range [%d, %d]", cfg.MinCapacity, cfg.MaxCapacity)
	}

	result := &Result{}

	// Provider account that owns all seeded events.
	password := gofakeit.Password(true, true, true, false, false, 16)
	providerName := "seed-" + gofakeit.Username()
	api := client.New(cfg.APIURL, "")
	if _, err := api.CreateAccount(&models.CreateAccountRequest{
		Username: providerName,
		Email:    gofakeit.Email(),
		Password: password,
		Role:     string(models.RoleProvider),
	}); err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	login, err := api.Login(providerName, password)
	if err != nil {
		return nil, fmt.Errorf("provider login: %w", err)
	}
	result.Provider = providerName

	providerAPI := client.New(cfg.APIURL, login.AccessToken)
	for i := 0; i < cfg.Events; i++ {
		capacity := cfg.MinCapacity + rng.Intn(cfg.MaxCapacity-cfg.MinCapacity+1)
		event, err := providerAPI.CreateEvent(&models.CreateEventRequest{
			Name:        gofakeit.Sentence(3),
			Description: gofakeit.Paragraph(1, 2, 8, " "),
			Location:    gofakeit.City(),
			Date:        gofakeit.DateRange(time.Now(), time.Now().AddDate(0, 3, 0)).Format(time.RFC3339),
			MaxCapacity: capacity,
		})
		if err != nil {
			return nil, fmt.Errorf("create event: %w", err)
		}
		result.Events = append(result.Events, event.ID)
	}

	// User pool submitting registrations.
	for i := 0; i < cfg.Users; i++ {
		userName := "seed-" + gofakeit.Username()
		userPass := gofakeit.Password(true, true, true, false, false, 16)
		if _, err := api.CreateAccount(&models.CreateAccountRequest{
			Username: userName,
			Email:    gofakeit.Email(),
			Password: userPass,
		}); err != nil {
			result.Failures++
			continue
		}
		userLogin, err := api.Login(userName, userPass)
		if err != nil {
			result.Failures++
			continue
		}
		result.Users++

		userAPI := client.New(cfg.APIURL, userLogin.AccessToken)
		targets := result.Events
		if !cfg.Oversubscribe {
			targets = targets[:1+rng.Intn(len(targets))]
		}
		for _, eventID := range targets {
			if _, err := userAPI.Register(eventID); err != nil {
				result.Failures++
				continue
			}
			result.Submissions++
		}
	}

	return result, nil
}
