// Package router sets up all HTTP routes and middleware chains for
// Sitecraft. Published sites are served at /sites/{slug}; the editor talks
// to the JSON API under /api.
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"sitecraft/internal/handlers"
	"sitecraft/internal/middleware"
)

// Handlers bundles the handler groups the router dispatches to.
type Handlers struct {
	Auth     *handlers.Auth
	Websites *handlers.Websites
	Editor   *handlers.Editor
	Media    *handlers.Media
	Schema   *handlers.Schema
	Admin    *handlers.Admin
	Public   *handlers.Public
}

// Options configures the middleware stack.
type Options struct {
	Sessions     middleware.SessionGetter
	SecureCookie bool

	// LoginLimiter throttles login attempts per client IP. Nil disables it.
	LoginLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check: no auth, no CSRF.
	r.Get("/health", handlers.Health)

	// Published websites.
	r.Get("/sites/{slug}", h.Public.Site)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(opts.Sessions))
		r.Use(middleware.NewCSRF(opts.SecureCookie))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.LoginLimiter != nil {
					r.Use(opts.LoginLimiter.Middleware)
				}
				r.Post("/login", h.Auth.Login)
			})

			// Requires a session but not completed 2FA.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", h.Auth.Me)
				r.Post("/logout", h.Auth.Logout)
				r.Post("/2fa/setup", h.Auth.TwoFASetup)
				r.Post("/2fa/verify", h.Auth.TwoFAVerify)
			})
		})

		// Authenticated + 2FA-verified API.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/schema", h.Schema.Catalog)
			r.Get("/templates", h.Websites.Templates)

			r.Route("/websites", func(r chi.Router) {
				r.Get("/", h.Websites.List)
				r.Post("/", h.Websites.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Websites.Get)
					r.Patch("/", h.Websites.Update)
					r.Delete("/", h.Websites.Delete)
					r.Post("/publish", h.Websites.Publish)
					r.Post("/unpublish", h.Websites.Unpublish)

					// Editing session
					r.Route("/session", func(r chi.Router) {
						r.Post("/", h.Editor.Open)
						r.Get("/", h.Editor.State)
						r.Delete("/", h.Editor.Close)
						r.Post("/flush", h.Editor.Flush)
						r.Get("/preview", h.Editor.Preview)

						r.Post("/elements", h.Editor.AddElement)
						r.Patch("/elements/{elementID}", h.Editor.UpdateElement)
						r.Delete("/elements/{elementID}", h.Editor.DeleteElement)
						r.Post("/elements/{elementID}/move", h.Editor.MoveElement)
						r.Put("/elements/{elementID}/frame", h.Editor.SetFrame)
						r.Put("/order", h.Editor.Reorder)
						r.Patch("/page", h.Editor.UpdatePage)

						r.Post("/select", h.Editor.Select)
						r.Delete("/select", h.Editor.ClearSelection)
						r.Patch("/selected", h.Editor.UpdateSelected)

						r.Post("/undo", h.Editor.Undo)
						r.Post("/redo", h.Editor.Redo)
						r.Post("/gesture/begin", h.Editor.BeginGesture)
						r.Post("/gesture/end", h.Editor.EndGesture)
					})
				})
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", h.Media.List)
				r.Post("/", h.Media.Upload)
				r.Delete("/{id}", h.Media.Delete)
			})

			// Operator endpoints, admin only
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/stats", h.Admin.Stats)
				r.Get("/cache-log", h.Admin.CacheLogEntries)
				r.Post("/cache/flush", h.Admin.FlushCache)
			})
		})
	})

	return r
}
