// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// blog API. Routes are split into an open group (registration, login,
// health, metrics) and the token-authenticated /api group.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"blogapi/internal/handlers"
	"blogapi/internal/metrics"
	"blogapi/internal/middleware"
	"blogapi/internal/render"
)

// Handlers are the handler groups mounted by the router.
type Handlers struct {
	Users *handlers.Users
	Blogs *handlers.Blogs
	Tags  *handlers.Tags
	Posts *handlers.Posts
}

// Options tune the middleware chain.
type Options struct {
	// AllowedOrigins lists the origins allowed by CORS. Empty allows none.
	AllowedOrigins []string

	// AuthLimiter throttles registration and login. Nil disables it.
	AuthLimiter *middleware.RateLimiter
}

// New creates the Chi router with all middleware and routes wired up.
// auth resolves API tokens to actors.
func New(auth middleware.ActorResolver, h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Authenticate(auth))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/", handlers.Root)

	r.Route("/api", func(r chi.Router) {
		// Token-issuing endpoints, open to anonymous callers.
		r.Group(func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Middleware)
			}
			r.Post("/users/register", h.Users.Register)
			r.Post("/users/login", h.Users.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/users/logout", h.Users.Logout)
			r.Get("/users", h.Users.List)
			r.Get("/users/{id}", h.Users.Get)

			r.Route("/blogs", func(r chi.Router) {
				r.Get("/", h.Blogs.List)
				r.Post("/", h.Blogs.Create)
				r.Get("/{id}", h.Blogs.Get)
				r.Put("/{id}", h.Blogs.Update)
				r.Patch("/{id}", h.Blogs.PartialUpdate)
				r.Delete("/{id}", h.Blogs.Delete)
			})

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", h.Tags.List)
				r.Post("/", h.Tags.Create)
				r.Get("/{id}", h.Tags.Get)
				r.Put("/{id}", h.Tags.Update)
				r.Patch("/{id}", h.Tags.PartialUpdate)
				r.Delete("/{id}", h.Tags.Delete)
			})

			// Posts are addressed by id or slug.
			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.Posts.List)
				r.Post("/", h.Posts.Create)
				r.Get("/published", h.Posts.Published)
				r.Get("/by_tag", h.Posts.ByTag)
				r.Get("/{id}", h.Posts.Get)
				r.Put("/{id}", h.Posts.Update)
				r.Patch("/{id}", h.Posts.PartialUpdate)
				r.Delete("/{id}", h.Posts.Delete)
				r.Put("/{id}/cover", h.Posts.UploadCover)
				r.Delete("/{id}/cover", h.Posts.DeleteCover)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
