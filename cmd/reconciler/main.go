package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/events"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/database"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.Env)

	appLogger.Info("Starting rating reconciler...")

	// Connect to database
	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	appLogger.Info("Connected to database")

	// Create reconciler and worker
	reconciler := worker.NewReconciler(db, appLogger)
	reconcileWorker := worker.NewReconcileWorker(reconciler, appLogger)

	// Connect to NATS JetStream
	appLogger.Info("Connecting to NATS JetStream...")
	consumer, err := events.NewConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer consumer.Close()

	// Initialize stream and durable consumer
	appLogger.Info("Initializing JetStream stream and consumer...")
	streamConfig := events.NewStreamConfig(consumer.JetStream(), appLogger)

	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}

	if err := streamConfig.EnsureConsumer(events.ConsumerReconciler, "Reconciler consumer repairing product rating aggregates"); err != nil {
		appLogger.Fatal("Failed to ensure consumer", err)
	}

	// Subscribe to review events using the durable consumer.
	// Failed messages are redelivered with exponential backoff and
	// discarded after MaxDeliver attempts; the next review event on the
	// product triggers a fresh rescan, so nothing is lost for good.
	if err := consumer.SubscribeDurable(events.StreamSubjects, events.ConsumerReconciler, reconcileWorker.HandleEvent); err != nil {
		appLogger.Fatal("Failed to subscribe to JetStream consumer", err)
	}

	appLogger.WithFields(map[string]any{
		"stream":   events.StreamName,
		"consumer": events.ConsumerReconciler,
	}).Info("Subscribed to JetStream consumer")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	appLogger.Info("Received shutdown signal")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reconcileWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.WithFields(map[string]any{
			"error": err.Error(),
		}).Error("Error during shutdown", err)
	}

	appLogger.Info("Rating reconciler stopped")
}
