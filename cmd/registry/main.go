package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/seatwise-systems/seatwise/internal/config"
	"github.com/seatwise-systems/seatwise/internal/handlers"
	"github.com/seatwise-systems/seatwise/internal/intake"
	"github.com/seatwise-systems/seatwise/internal/logging"
	"github.com/seatwise-systems/seatwise/internal/middleware"
	natsclient "github.com/seatwise-systems/seatwise/internal/messaging/nats"
	"github.com/seatwise-systems/seatwise/internal/repository"
	"github.com/seatwise-systems/seatwise/internal/server"
	"github.com/seatwise-systems/seatwise/internal/service"
	"github.com/seatwise-systems/seatwise/pkg/tokens"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	log.Printf("Starting registry service on port %d", cfg.Server.Port)

	// Initialize repository
	var repo repository.Repository
	if cfg.Database.URL != "" {
		// Run database migrations
		log.Println("Running database migrations...")
		m, err := migrate.New("file://"+cfg.Database.Migrations, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")

		pg, err := repository.NewPostgresRepository(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pg.Close()
		repo = pg
	} else {
		log.Println("No database URL configured, using in-memory repository")
		repo = repository.NewInMemoryRepository()
	}

	// Connect to NATS and make sure the registration stream exists before
	// accepting submissions.
	js, err := natsclient.NewJetStreamClient(natsclient.Config{
		URL:           cfg.NATS.URL,
		Name:          cfg.NATS.Name + "-registry",
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWait,
		Timeout:       cfg.NATS.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer js.Close()

	if _, err := js.CreateOrUpdateStream(context.Background(), natsclient.RegistrationsStream); err != nil {
		log.Fatalf("Failed to create registrations stream: %v", err)
	}

	// Wire services and handlers
	tokenGen := tokens.NewTokenGenerator(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	accountService := service.NewAccountService(repo, tokenGen, cfg.Auth.AccessTokenTTL)
	catalogService := service.NewCatalogService(repo)
	intakeService := intake.NewService(catalogService, js.Durable(), logger)

	accountHandler := handlers.NewAccountHandler(accountService)
	eventHandler := handlers.NewEventHandler(catalogService, intakeService)
	authMiddleware := middleware.NewAuthMiddleware(tokenGen)

	router := server.NewRouter(accountHandler, eventHandler, authMiddleware)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Registry service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
