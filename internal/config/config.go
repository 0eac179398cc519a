package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort              = "8080"
	defaultEnv               = "dev"
	defaultLogLevel          = "info"
	defaultSubmitDelay       = 1500 * time.Millisecond
	defaultRateLimit         = 5
	defaultRateWindow        = time.Hour
	defaultPageCacheTTL      = 5 * time.Minute
	defaultGalleryInterval   = 3500 * time.Millisecond
	defaultReadHeaderTimeout = 10 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 15 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Site    SiteConfig    `yaml:"site"`
	Paths   PathsConfig   `yaml:"paths"`
	Contact ContactConfig `yaml:"contact"`
	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	Env               string        `yaml:"env"`
	Dev               bool          `yaml:"dev"`
	TrustProxy        bool          `yaml:"trust_proxy"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// SiteConfig holds presentation switches.
type SiteConfig struct {
	MapsAPIKey      string        `yaml:"maps_api_key"`
	DetectLocale    bool          `yaml:"detect_locale"`
	GalleryInterval time.Duration `yaml:"gallery_interval"`
	PageCacheTTL    time.Duration `yaml:"page_cache_ttl"`
}

// PathsConfig overrides embedded trees with on-disk directories (useful in dev).
type PathsConfig struct {
	Templates string `yaml:"templates"`
	Locales   string `yaml:"locales"`
	Content   string `yaml:"content"`
	Public    string `yaml:"public"`
}

// ContactConfig tunes contact form delivery.
type ContactConfig struct {
	SubmitDelay    time.Duration `yaml:"submit_delay"`
	SimulateFail   bool          `yaml:"simulate_failure"`
	RequireConsent bool          `yaml:"require_consent"`
	RateLimit      int           `yaml:"rate_limit"`
	RateWindow     time.Duration `yaml:"rate_window"`
	RedisURL       string        `yaml:"redis_url"`
	OutboxKey      string        `yaml:"outbox_key"`
}

// LogConfig selects level and an optional rotated file sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey string `yaml:"signing_key"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":" + defaultPort,
			Env:               defaultEnv,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
		},
		Site: SiteConfig{
			GalleryInterval: defaultGalleryInterval,
			PageCacheTTL:    defaultPageCacheTTL,
		},
		Contact: ContactConfig{
			SubmitDelay:    defaultSubmitDelay,
			RequireConsent: true,
			RateLimit:      defaultRateLimit,
			RateWindow:     defaultRateWindow,
		},
		Log: LogConfig{
			Level:      defaultLogLevel,
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if any), then environment.
// An empty path falls back to LMSTUDIO_WEB_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = strings.TrimSpace(os.Getenv("LMSTUDIO_WEB_CONFIG"))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	// Port resolution: prefer LMSTUDIO_WEB_PORT, then the platform's PORT
	if v, ok := get("LMSTUDIO_WEB_PORT"); ok {
		cfg.Server.Addr = ":" + v
	} else if v, ok := get("PORT"); ok {
		cfg.Server.Addr = ":" + v
	}
	if v, ok := get("LMSTUDIO_WEB_ENV"); ok {
		cfg.Server.Env = strings.ToLower(v)
	}
	if _, ok := get("LMSTUDIO_WEB_DEV"); ok {
		cfg.Server.Dev = true
	}
	if v, ok := get("LMSTUDIO_WEB_TRUST_PROXY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: LMSTUDIO_WEB_TRUST_PROXY: %w", err)
		}
		cfg.Server.TrustProxy = b
	}
	if v, ok := get("LMSTUDIO_WEB_MAPS_API_KEY"); ok {
		cfg.Site.MapsAPIKey = v
	}
	if v, ok := get("LMSTUDIO_WEB_DETECT_LOCALE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: LMSTUDIO_WEB_DETECT_LOCALE: %w", err)
		}
		cfg.Site.DetectLocale = b
	}
	if v, ok := get("LMSTUDIO_WEB_REDIS_URL"); ok {
		cfg.Contact.RedisURL = v
	}
	if v, ok := get("LMSTUDIO_WEB_SUBMIT_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: LMSTUDIO_WEB_SUBMIT_DELAY: %w", err)
		}
		cfg.Contact.SubmitDelay = d
	}
	if v, ok := get("LMSTUDIO_WEB_LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("LMSTUDIO_WEB_LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := get("LMSTUDIO_WEB_SESSION_SIGNING_KEY"); ok {
		cfg.Session.SigningKey = v
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("config: server.addr is required"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Contact.SubmitDelay < 0 {
		errs = append(errs, errors.New("config: contact.submit_delay must not be negative"))
	}
	if c.Contact.RateLimit < 0 {
		errs = append(errs, errors.New("config: contact.rate_limit must not be negative"))
	}
	if c.Contact.RateLimit > 0 && c.Contact.RateWindow <= 0 {
		errs = append(errs, errors.New("config: contact.rate_window must be positive when rate_limit is set"))
	}
	if c.Site.GalleryInterval <= 0 {
		errs = append(errs, errors.New("config: site.gallery_interval must be positive"))
	}
	if c.IsProd() && c.Session.SigningKey == "" {
		errs = append(errs, errors.New("config: session.signing_key is required in prod"))
	}
	return errors.Join(errs...)
}

// IsProd reports whether the server runs in the production environment.
func (c Config) IsProd() bool { return c.Server.Env == "prod" }
