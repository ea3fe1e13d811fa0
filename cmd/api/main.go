package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/marketplace_reviews/internal/delivery/http"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/handler"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/cache"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/database"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/media"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/metrics"
	cacheRepo "github.com/Pesokrava/marketplace_reviews/internal/repository/cache"
	"github.com/Pesokrava/marketplace_reviews/internal/repository/postgres"
	"github.com/Pesokrava/marketplace_reviews/internal/usecase/product"
	"github.com/Pesokrava/marketplace_reviews/internal/usecase/review"
	"github.com/Pesokrava/marketplace_reviews/internal/usecase/social"
)

// @title Marketplace Reviews API
// @version 1.0
// @description Review and rating consistency engine: verified reviews, denormalized product ratings, cache-aside reads, and event-driven side effects.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/marketplace_reviews
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @tag.name Products
// @tag.description Product catalog read endpoints

// @tag.name Reviews
// @tag.description Review lifecycle endpoints

// @tag.name Social
// @tag.description Like and follow endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Marketplace Reviews API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	streamConfig := events.NewStreamConfig(publisher.JetStream(), appLogger)
	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}

	m := metrics.NewDefault()

	productRepo := postgres.NewProductRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	socialRepo := postgres.NewSocialRepository(db)
	redisCache := cacheRepo.New(redisClient, cfg.Cache, m)
	uploader := media.NewS3Uploader(cfg.Media)

	productService := product.NewService(productRepo, redisCache, appLogger)
	reviewService := review.NewService(reviewRepo, productRepo, orderRepo, redisCache, publisher, uploader, appLogger)
	socialService := social.NewService(socialRepo, redisCache, appLogger)

	productHandler := handler.NewProductHandler(productService, appLogger)
	reviewHandler := handler.NewReviewHandler(reviewService, appLogger)
	socialHandler := handler.NewSocialHandler(socialService, appLogger)

	router := httpDelivery.NewRouter(productHandler, reviewHandler, socialHandler, m, cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
