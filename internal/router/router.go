// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// storybook service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"storybook/internal/handlers"
	"storybook/internal/middleware"
)

// Options configures the cross-cutting parts of the router.
type Options struct {
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string

	// SecureCookies marks the client id cookie Secure.
	SecureCookies bool

	// GenerateLimiter throttles generation requests per IP. Nil disables
	// throttling.
	GenerateLimiter *middleware.RateLimiter

	// WebSocket serves the progress stream at /api/ws.
	WebSocket http.Handler
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(api *handlers.API, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", middleware.ClientIDHeader},
		ExposedHeaders:   []string{middleware.ClientIDHeader, "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler)

	// Health check, no client identity.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identify(opts.SecureCookies))

		r.Get("/themes", api.ListThemes)
		r.Get("/themes/{id}/story", api.StoryPreview)

		r.Route("/generations", func(r chi.Router) {
			r.Get("/", api.ListGenerations)
			r.Get("/current", api.CurrentGeneration)
			r.Post("/reset", api.ResetGeneration)
			r.Delete("/{id}", api.DismissGeneration)

			// Generation POSTs render or call out and are throttled.
			r.Group(func(r chi.Router) {
				if opts.GenerateLimiter != nil {
					r.Use(opts.GenerateLimiter.Middleware)
				}
				r.Post("/", api.Generate)
				r.Post("/remote", api.GenerateRemote)
			})
		})

		r.Get("/draft", api.GetDraft)
		r.Put("/draft", api.SaveDraft)
		r.Delete("/draft", api.DeleteDraft)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", api.ListHistory)
			r.Get("/trash", api.ListTrash)
			r.Delete("/trash", api.EmptyTrash)
			r.Delete("/{id}", api.RemoveHistory)
			r.Post("/{id}/restore", api.RestoreHistory)
			r.Delete("/{id}/purge", api.PurgeHistory)
			r.Get("/{id}/download", api.Download)
		})

		r.Get("/artifacts/*", api.Artifact)

		if opts.WebSocket != nil {
			r.Handle("/ws", opts.WebSocket)
		}
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
