package main

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	site "github.com/rjvillar/lmstudio-musikkservice-site"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/config"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/contact"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/content"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/i18n"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/locale"
	mw "github.com/rjvillar/lmstudio-musikkservice-site/internal/middleware"
)

// app holds everything a request handler needs.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	bundle   *i18n.Bundle
	store    *content.Store
	pages    *content.Pages
	contact  *contact.Service
	sessions *mw.SessionStore
	tmpl     *renderer
	public   fs.FS
	redis    *redis.Client

	now  func() time.Time
	rand *rand.Rand
}

// newApp loads catalogs, content and templates and wires the contact pipeline.
func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{cfg: cfg, logger: logger, now: time.Now}

	localesFS, err := site.Open("locales", cfg.Paths.Locales)
	if err != nil {
		return nil, fmt.Errorf("open locales: %w", err)
	}
	if a.bundle, err = i18n.Load(localesFS, locale.Default, locale.Supported); err != nil {
		return nil, err
	}

	contentFS, err := site.Open("content", cfg.Paths.Content)
	if err != nil {
		return nil, fmt.Errorf("open content: %w", err)
	}
	if a.store, err = content.Load(contentFS, "site.yaml"); err != nil {
		return nil, err
	}
	pagesFS, err := fs.Sub(contentFS, "pages")
	if err != nil {
		return nil, fmt.Errorf("open pages: %w", err)
	}
	a.pages = content.NewPages(pagesFS, locale.Default, cfg.Site.PageCacheTTL)

	templatesFS, err := site.Open("templates", cfg.Paths.Templates)
	if err != nil {
		return nil, fmt.Errorf("open templates: %w", err)
	}
	if a.tmpl, err = newRenderer(templatesFS, a.bundle); err != nil {
		return nil, err
	}

	if a.public, err = site.Open("public", cfg.Paths.Public); err != nil {
		return nil, fmt.Errorf("open public: %w", err)
	}

	a.sessions = mw.NewSessionStore(mw.SessionOptions{
		SigningKey: []byte(cfg.Session.SigningKey),
		Secure:     cfg.IsProd(),
		Logger:     logger,
	})

	opts := contact.Options{
		Translator:     a.bundle,
		RequireConsent: cfg.Contact.RequireConsent,
		Logger:         logger.Named("contact"),
	}
	if cfg.Contact.RedisURL != "" {
		ropts, err := redis.ParseURL(cfg.Contact.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(ropts)
		opts.Sink = contact.NewRedisSink(a.redis, cfg.Contact.OutboxKey)
		opts.Limiter = contact.NewRedisLimiter(a.redis, cfg.Contact.RateLimit, cfg.Contact.RateWindow)
	} else {
		opts.Sink = &contact.SimulatedSink{
			Delay:  cfg.Contact.SubmitDelay,
			Fail:   cfg.Contact.SimulateFail,
			Logger: logger.Named("contact"),
		}
		opts.Limiter = contact.NewMemoryLimiter(cfg.Contact.RateLimit, cfg.Contact.RateWindow)
	}
	a.contact = contact.NewService(opts)
	return a, nil
}

// ping verifies external dependencies are reachable.
func (a *app) ping(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Close releases external connections.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
