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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/seatwise-systems/seatwise/internal/config"
	"github.com/seatwise-systems/seatwise/internal/dlq"
	"github.com/seatwise-systems/seatwise/internal/logging"
	"github.com/seatwise-systems/seatwise/internal/messaging"
	natsclient "github.com/seatwise-systems/seatwise/internal/messaging/nats"
	"github.com/seatwise-systems/seatwise/internal/notify"
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

	log.Println("Starting decision notifier...")

	// Initialize repository for event and user lookups
	var repo repository.Repository
	if cfg.Database.URL != "" {
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
		Name:          cfg.NATS.Name + "-notifier",
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

	// Ensure the decisions stream and durable consumer exist
	if err := js.EnsureDecisionDelivery(ctx, cfg.Notifier.MaxDeliver); err != nil {
		log.Fatalf("Failed to set up decision delivery: %v", err)
	}

	// Dead-letter queue for undeliverable decisions
	deadLetters, err := dlq.NewQueue(ctx, js, messaging.SubjectNotificationsDLQ)
	if err != nil {
		log.Fatalf("Failed to create dead-letter queue: %v", err)
	}

	// Optional redis-backed de-duplication across notifier replicas
	var deduper notify.Deduper
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		deduper = notify.NewRedisDeduper(redisClient, cfg.Redis.DedupeTTL)
		log.Println("Redis de-duplication enabled")
	}

	// Select the notification channel
	var channel notify.Channel
	switch cfg.Notifier.Channel {
	case "email":
		channel = notify.NewEmailChannel(
			cfg.Notifier.SMTP.Host,
			cfg.Notifier.SMTP.Port,
			cfg.Notifier.SMTP.From,
			cfg.Notifier.SMTP.Username,
			cfg.Notifier.SMTP.Password,
		)
	case "webhook":
		channel = notify.NewWebhookChannel(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout)
	default:
		channel = notify.NewLogChannel(log.Printf)
	}
	log.Printf("Notification channel: %s", channel.Type())

	notifier := notify.NewNotifier(repo, deduper, channel, deadLetters, notify.Config{
		MaxDeliver: cfg.Notifier.MaxDeliver,
		NakDelay:   cfg.Notifier.NakDelay,
	}, logger)

	stop, err := js.ConsumeDeliveries(ctx, natsclient.DecisionsStream.Name, messaging.ConsumerNotifier, notifier.Handle)
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
		log.Printf("Decision notifier listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("Decision notifier started")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Decision notifier stopped")
}
