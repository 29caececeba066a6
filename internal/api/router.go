/**
 * @description
 * This file sets up the HTTP router for the billing service. It defines the
 * portal endpoints, applies middleware for logging, panic recovery, timeouts
 * and CORS, and exposes a health check.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the router for the billing service. The purchase endpoint
// is called from captive-portal browsers, hence the permissive CORS policy;
// the confirmation endpoint is called server-to-server by the payment gateway.
func NewRouter(h *PortalHandlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Get("/packages", h.ListPackagesHandler)
	r.Post("/purchases", h.PurchaseHandler)
	r.Post("/payment-confirmations", h.PaymentConfirmationHandler)

	return r
}
