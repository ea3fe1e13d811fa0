package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/events"
	"github.com/Pesokrava/marketplace_reviews/internal/notifier"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/database"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting notifier service...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	consumer, err := events.NewConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS consumer", err)
	}
	defer consumer.Close()

	streamConfig := events.NewStreamConfig(consumer.JetStream(), appLogger)
	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}
	if err := streamConfig.EnsureConsumer(events.ConsumerNotifier, "Notifier consumer for review side effects"); err != nil {
		appLogger.Fatal("Failed to ensure consumer", err)
	}

	productRepo := postgres.NewProductRepository(db)
	pointsRepo := postgres.NewPointsRepository(db)
	mailer := notifier.NewSMTPMailer(cfg)

	svc := notifier.New(productRepo, pointsRepo, mailer, cfg.Points.ReviewAward, appLogger)

	if err := consumer.SubscribeDurable(events.StreamSubjects, events.ConsumerNotifier, svc.HandleEvent); err != nil {
		appLogger.Fatal("Failed to subscribe to review events", err)
	}

	appLogger.Info("Notifier service started and listening for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down notifier service...")
}
