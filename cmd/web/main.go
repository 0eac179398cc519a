// Command lmstudio-web serves the LM Studio & Musikkservice website.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rjvillar/lmstudio-musikkservice-site/internal/config"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/locale"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/logging"
	"github.com/rjvillar/lmstudio-musikkservice-site/internal/nav"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	addr       string
	dev        bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "lmstudio-web",
		Short:         "LM Studio & Musikkservice website",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file (default $LMSTUDIO_WEB_CONFIG)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	serve.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address (overrides config)")
	serve.Flags().BoolVar(&flags.dev, "dev", false, "watch on-disk templates and disable asset caching")

	check := &cobra.Command{
		Use:   "check",
		Short: "Validate content, pages and message catalogs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runCheck(cfg, cmd.OutOrStdout())
		},
	}

	root.AddCommand(serve, check)
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.dev {
		cfg.Server.Dev = true
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *zap.Logger {
	return logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Dev:        cfg.Server.Dev,
	})
}

// runServe starts the server and shuts it down gracefully when ctx is done.
func runServe(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() { _ = a.Close() }()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return logging.WithLogger(context.Background(), logger) },
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Server.Dev && cfg.Paths.Templates != "" {
		tw, err := newTemplateWatcher(cfg.Paths.Templates, a.tmpl, logger.Named("templates"))
		if err != nil {
			return err
		}
		g.Go(func() error { return tw.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("web listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("dev", cfg.Server.Dev),
			zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

var templateKeyPattern = regexp.MustCompile(`(?:\{\{-?|\()\s*tf?\s+\$?[\w.]*\s+"([^"]+)"`)

// runCheck loads everything the server would and reports missing translations.
func runCheck(cfg config.Config, out io.Writer) error {
	a, err := newApp(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	keys, err := a.tmpl.translationKeys(templateKeyPattern)
	if err != nil {
		return err
	}
	keys = append(keys, nav.LabelKeys()...)
	keys = append(keys, handlerKeys...)
	missing := a.bundle.Missing(dedupe(keys))

	var problems []error
	for _, m := range missing {
		problems = append(problems, fmt.Errorf("missing translation %s", m))
	}
	for _, lang := range locale.Supported {
		slugs, err := a.pages.Slugs(lang)
		if err != nil {
			problems = append(problems, fmt.Errorf("list pages %s: %w", lang, err))
			continue
		}
		for _, slug := range slugs {
			if _, err := a.pages.Get(slug, lang); err != nil {
				problems = append(problems, fmt.Errorf("page %s/%s: %w", lang, slug, err))
			}
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}
	fmt.Fprintf(out, "ok: %d services, %d gallery images, %d translation keys checked\n",
		len(a.store.Services()), len(a.store.Gallery()), len(keys))
	return nil
}

// handlerKeys are looked up from Go code rather than templates.
var handlerKeys = []string{
	"contact.success",
	"contact.failure",
	"contact.rate_limited",
	"contact.error.name",
	"contact.error.email_required",
	"contact.error.email_invalid",
	"contact.error.message",
	"contact.error.consent",
	"notfound.body",
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
