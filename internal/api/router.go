/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication and rate limiting.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AllanKariuki/ledger-service/internal/app"
)

// RouterOptions carries the cross-cutting pieces the router wires in.
type RouterOptions struct {
	JWTSecret          string
	RateLimiter        *app.RedisRateLimiter
	TransferRatePerMin int
}

// Routes creates and returns the router for the ledger service.
func Routes(h *LedgerHandlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public authentication endpoints.
	r.Post("/api/auth/register", h.RegisterHandler)
	r.Post("/api/auth/login", h.LoginHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.JWTSecret))

		r.Get("/api/auth/profile", h.ProfileHandler)
		r.Get("/api/transactions/balance", h.BalanceHandler)
		r.Get("/api/transactions/history", h.HistoryHandler)
		r.Post("/api/transactions/simulate-mpesa", h.SimulateMpesaHandler)

		// Transfers carry the per-account rate limit.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(opts.RateLimiter, "transfer", opts.TransferRatePerMin))
			r.Post("/api/transactions/transfer", h.TransferHandler)
		})
	})

	return r
}
