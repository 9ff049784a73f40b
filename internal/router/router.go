package router

import (
	"net/http"

	"venuepoint-terminal/internal/handler"
	"venuepoint-terminal/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler            *handler.Handler
	AuthHandler        *handler.AuthHandler
	IdentifyHandler    *handler.IdentifyHandler
	ScanHandler        *handler.ScanHandler
	BalanceHandler     *handler.BalanceHandler
	TransactionHandler *handler.TransactionHandler
	JournalHandler     *handler.JournalHandler
	AuthMiddleware     func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", "X-Terminal-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Operator session endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Identification endpoints
			if cfg.IdentifyHandler != nil {
				r.Route("/identify", func(r chi.Router) {
					r.Get("/", cfg.IdentifyHandler.Current)
					r.Post("/input", cfg.IdentifyHandler.Input)
					r.Post("/retry", cfg.IdentifyHandler.Retry)
					r.Post("/clear", cfg.IdentifyHandler.Clear)
				})
			}

			// Scan session endpoints
			if cfg.ScanHandler != nil {
				r.Route("/scan", func(r chi.Router) {
					r.Get("/", cfg.ScanHandler.Status)
					r.Post("/start", cfg.ScanHandler.Start)
					r.Post("/stop", cfg.ScanHandler.Stop)
				})
			}

			// Merchant balance endpoints
			if cfg.BalanceHandler != nil {
				r.Route("/balance", func(r chi.Router) {
					r.Get("/", cfg.BalanceHandler.Current)
					r.Post("/refresh", cfg.BalanceHandler.Refresh)
				})
			}

			// Transaction endpoints
			if cfg.TransactionHandler != nil {
				r.Route("/transaction", func(r chi.Router) {
					r.Get("/", cfg.TransactionHandler.Current)
					r.Post("/mode", cfg.TransactionHandler.SwitchMode)
					r.Post("/form", cfg.TransactionHandler.SetForm)
					r.Post("/submit", cfg.TransactionHandler.Submit)
					r.Post("/reset", cfg.TransactionHandler.Reset)
				})
			}

			// Journal endpoints
			if cfg.JournalHandler != nil {
				r.Get("/journal", cfg.JournalHandler.List)
			}
		})
	})

	return r
}
