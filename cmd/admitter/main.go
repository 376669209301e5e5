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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seatwise-systems/seatwise/internal/admission"
	"github.com/seatwise-systems/seatwise/internal/config"
	"github.com/seatwise-systems/seatwise/internal/dlq"
	"github.com/seatwise-systems/seatwise/internal/logging"
	"github.com/seatwise-systems/seatwise/internal/messaging"
	natsclient "github.com/seatwise-systems/seatwise/internal/messaging/nats"
	"github.com/seatwise-systems/seatwise/internal/repository"
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

	log.Println("Starting admission processor...")

	// Initialize repository
	var repo repository.Repository
	if cfg.Database.URL != "" {
		log.Println("Running database migrations...")
		m, err := migrate.New("file://"+cfg.Database.Migrations, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}

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

	// Connect to NATS
	js, err := natsclient.NewJetStreamClient(natsclient.Config{
		URL:           cfg.NATS.URL,
		Name:          cfg.NATS.Name + "-admitter",
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWait,
		Timeout:       cfg.NATS.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer js.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure streams and durable consumers exist. The decisions stream uses
	// interest retention, so the notifier's durable must be bound here too:
	// decisions published before the notifier first boots would otherwise be
	// discarded by the broker.
	if _, err := js.CreateOrUpdateStream(ctx, natsclient.RegistrationsStream); err != nil {
		log.Fatalf("Failed to create registrations stream: %v", err)
	}
	if err := js.EnsureDecisionDelivery(ctx, cfg.Notifier.MaxDeliver); err != nil {
		log.Fatalf("Failed to set up decision delivery: %v", err)
	}

	consumerCfg := natsclient.DefaultConsumerConfig(messaging.ConsumerAdmission, messaging.SubjectRegistrationsSubmit+".>")
	consumerCfg.AckWait = cfg.Admission.AckWait
	consumerCfg.MaxDeliver = cfg.Admission.MaxDeliver
	if _, err := js.CreateOrUpdateConsumer(ctx, natsclient.RegistrationsStream.Name, consumerCfg); err != nil {
		log.Fatalf("Failed to create admission consumer: %v", err)
	}

	// Dead-letter queue for malformed and exhausted messages
	deadLetters, err := dlq.NewQueue(ctx, js, messaging.SubjectRegistrationsDLQ)
	if err != nil {
		log.Fatalf("Failed to create dead-letter queue: %v", err)
	}

	// Wire processor and dispatcher
	processor := admission.NewProcessor(repo, js.Durable(), deadLetters, admission.Config{
		MaxDeliver: cfg.Admission.MaxDeliver,
		NakDelay:   cfg.Admission.NakDelay,
	}, logger)

	dispatcher := admission.NewDispatcher(cfg.Admission.Shards, cfg.Admission.QueueLen, processor.Handle)
	dispatcher.Start(ctx)

	stop, err := js.ConsumeDeliveries(ctx, natsclient.RegistrationsStream.Name, messaging.ConsumerAdmission, dispatcher.Dispatch)
	if err != nil {
		log.Fatalf("Failed to start consuming: %v", err)
	}

	// Expose health, metrics and dead-letter inspection
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /dlq", dlq.NewHandler(deadLetters))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if !js.IsConnected() {
			http.Error(w, "NATS disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Admission processor listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("Admission processor started")

	// Graceful shutdown: stop pulling new deliveries first, then let in-flight
	// shard queues drain before closing connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	stop()
	dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Admission processor stopped")
}
