package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mw "github.com/rjvillar/lmstudio-musikkservice-site/internal/middleware"
)

const requestTimeout = 30 * time.Second

// routes builds the HTTP handler tree.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For and friends, so it only runs when a proxy
	// in front of us overwrites them. Otherwise clients could pick their own
	// rate-limit key.
	if a.cfg.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(mw.Logger(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.HTMX)
	// locale prefixes are resolved before routing: "/en/x" routes as "/x"
	r.Use(mw.Locale(mw.LocaleOptions{
		Bundle:       a.bundle,
		Detect:       a.cfg.Site.DetectLocale,
		Secure:       a.cfg.IsProd(),
		SkipPrefixes: []string{"/assets/", "/images/", "/healthz"},
	}))
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", a.HealthzHandler)

	static := mw.AssetsWithCache(a.public, a.cfg.Server.Dev)
	r.Handle("/assets/*", static)
	r.Handle("/images/*", static)

	r.Group(func(r chi.Router) {
		r.Use(a.sessions.Middleware)
		r.Use(mw.CSRF(a.sessions.Secure()))

		r.Get("/", a.HomeHandler)
		r.Get("/gallery", a.GalleryHandler)
		r.Post("/contact", a.ContactHandler)
		r.Get("/{slug}", a.PageHandler)
	})

	r.NotFound(a.NotFoundHandler)
	return r
}
