// Package main is the entry point for the quotekeeper service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/flags"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/notify"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

// notificationCapacity bounds the undelivered sync notifications kept for clients.
const notificationCapacity = 32

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger, closeLog := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
		}
	}()

	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Open storage
	store, err := sqlite.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing store", slog.Any("error", closeErr))
		}
	}()

	sessions := memory.NewSessionStore(cfg.Session.IdleTimeout, memory.WithLogger(logger))
	feed := notify.NewFeed(notificationCapacity, logger)
	featureFlags := flags.NewStatic(cfg.Features)

	// 6. Create the remote quote source (ACL over the resilient client)
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Remote.BaseURL,
		ServiceName: cfg.Services.Remote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	remote := acl.NewPostsClient(acl.PostsClientConfig{
		Client:      httpClient,
		ServiceName: cfg.Services.Remote.Name,
		Logger:      logger,
	})

	// 7. Register readiness checks
	healthRegistry := ports.NewHealthRegistry(ports.DefaultCheckTimeout)
	// Remote outages are reported but never fail readiness.
	for _, checker := range []ports.HealthChecker{store, ports.Optional(remote)} {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	// 8. Load the quote list and build the application layer
	book := app.NewQuoteBook(store, logger)
	if err := book.Load(ctx); err != nil {
		return fmt.Errorf("loading quotes: %w", err)
	}

	presenter := app.NewPresenter(app.PresenterConfig{
		Book:     book,
		Store:    store,
		Sessions: sessions,
		Logger:   logger,
	})
	transfer := app.NewTransfer(book, featureFlags, app.NewExecutor(logger), logger)
	syncer := app.NewSyncer(app.SyncerConfig{
		Source:   remote,
		Book:     book,
		Notifier: feed,
		Logger:   logger,
		Interval: cfg.Sync.Interval,
		Limit:    cfg.Sync.Limit,
		Category: cfg.Sync.Category,
	})

	// 9. Expose domain gauges next to the runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	err = telemetry.RegisterGauges(registry, "quotekeeper", telemetry.Gauges{
		Quotes:     book.Len,
		Categories: func() int { return len(book.Categories()) },
		Sessions:   sessions.Len,
	})
	if err != nil {
		return fmt.Errorf("registering gauges: %w", err)
	}

	// 10. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo, registry)
	quoteHandler := handlers.NewQuoteHandler(handlers.QuoteHandlerConfig{
		Book:      book,
		Presenter: presenter,
		Transfer:  transfer,
		Syncer:    syncer,
		Feed:      feed,
	})

	// 11. Create HTTP server and router
	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:      logger,
		ServiceName: cfg.App.Name,
		Session: middleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.App.Environment == "prod",
		},
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
		Timeout:       http.DefaultRequestTimeout,
	})

	// 12. Run the server and background workers until a signal arrives
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return sessions.RunJanitor(gctx, cfg.Session.SweepInterval) })

	if cfg.Sync.Enabled {
		g.Go(func() error { return syncer.Run(gctx) })
	} else {
		logger.Info("periodic remote sync disabled")
	}

	err = g.Wait()

	logger.Info("shutdown complete")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
