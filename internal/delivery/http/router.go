package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/marketplace_reviews/internal/config"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/handler"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/middleware"
	"github.com/Pesokrava/marketplace_reviews/internal/delivery/http/response"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/logger"
	"github.com/Pesokrava/marketplace_reviews/internal/pkg/metrics"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	productHandler *handler.ProductHandler
	reviewHandler  *handler.ReviewHandler
	socialHandler  *handler.SocialHandler
	metrics        *metrics.Metrics
	logger         *logger.Logger
	cfg            *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	productHandler *handler.ProductHandler,
	reviewHandler *handler.ReviewHandler,
	socialHandler *handler.SocialHandler,
	m *metrics.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		productHandler: productHandler,
		reviewHandler:  reviewHandler,
		socialHandler:  socialHandler,
		metrics:        m,
		logger:         log,
		cfg:            cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", rt.productHandler.List)
			r.Get("/slug/{slug}", rt.productHandler.GetBySlug)
			r.Get("/{id}", rt.productHandler.GetByID)
			r.Get("/{id}/reviews", rt.reviewHandler.ListByProduct)
			r.Get("/{id}/reviews/summary", rt.reviewHandler.Summary)
			r.Post("/{id}/likes", rt.socialHandler.LikeProduct)
			r.Delete("/{id}/likes", rt.socialHandler.UnlikeProduct)
			r.Get("/{id}/likes", rt.socialHandler.ProductLikeCount)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", rt.reviewHandler.Create)
			r.Put("/{id}", rt.reviewHandler.Update)
			r.Delete("/{id}", rt.reviewHandler.Delete)
			r.Post("/{id}/response", rt.reviewHandler.AddResponse)
			r.Put("/{id}/response", rt.reviewHandler.UpdateResponse)
			r.Delete("/{id}/response", rt.reviewHandler.DeleteResponse)
			r.Get("/{id}/response", rt.reviewHandler.GetResponse)
			r.Post("/{id}/report", rt.reviewHandler.Report)
			r.Post("/{id}/likes", rt.socialHandler.LikeReview)
			r.Delete("/{id}/likes", rt.socialHandler.UnlikeReview)
			r.Get("/{id}/likes", rt.socialHandler.ReviewLikeCount)
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/{id}/reviews", rt.reviewHandler.ListByStore)
			r.Post("/{id}/follow", rt.socialHandler.FollowStore)
			r.Delete("/{id}/follow", rt.socialHandler.UnfollowStore)
			r.Get("/{id}/followers", rt.socialHandler.StoreFollowerCount)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/reviews", rt.reviewHandler.ListMine)
			r.Get("/liked-products", rt.socialHandler.LikedProducts)
			r.Get("/following", rt.socialHandler.Following)
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
