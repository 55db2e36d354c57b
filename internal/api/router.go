package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/handler"
	customMiddleware "github.com/GabrielCardoz0/evolution-directus-bridge/internal/api/middleware"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/domain"
)

// Dependencies are the collaborators the HTTP boundary calls into
type Dependencies struct {
	Users   domain.UserDirectory
	Store   handler.Pinger
	Pairing handler.PairingService
	Queue   handler.EventQueue
	// Limiter is optional; pairing is not rate limited without it
	Limiter customMiddleware.Limiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	webhookHandler := handler.NewWebhookHandler(deps.Queue)
	whatsappHandler := handler.NewWhatsAppHandler(deps.Pairing)
	authMiddleware := customMiddleware.NewAuthMiddleware(deps.Users)

	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.Store))

	r.Post("/evolution/webhooks", webhookHandler.Receive)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		if deps.Limiter != nil {
			r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter).Limit)
		}

		r.Get("/whatsapp/connect", whatsappHandler.Connect)
	})

	return r
}
