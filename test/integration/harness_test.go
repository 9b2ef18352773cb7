//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/flags"
	httpadapter "github.com/jsamuelsen/quotekeeper/internal/adapters/http"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/notify"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// fakeRemote serves /posts the way the public placeholder API does.
type fakeRemote struct {
	mu     sync.Mutex
	titles []string

	failing atomic.Bool
	calls   atomic.Int32
}

func newFakeRemote(titles ...string) *fakeRemote {
	return &fakeRemote{titles: titles}
}

func (f *fakeRemote) SetTitles(titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.titles = titles
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	if f.failing.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if r.URL.Path != "/posts" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	f.mu.Lock()
	titles := append([]string(nil), f.titles...)
	f.mu.Unlock()

	if limit, err := strconv.Atoi(r.URL.Query().Get("_limit")); err == nil && limit < len(titles) {
		titles = titles[:limit]
	}

	posts := make([]map[string]any, 0, len(titles))
	for i, title := range titles {
		posts = append(posts, map[string]any{
			"userId": 1,
			"id":     i + 1,
			"title":  title,
			"body":   "body " + strconv.Itoa(i+1),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(posts)
}

// stack is the full service wired the way cmd/service does it, served by
// httptest against a sqlite file and a fake remote.
type stack struct {
	server *httptest.Server
	store  *sqlite.Store
	book   *app.QuoteBook
	syncer *app.Syncer
	feed   *notify.Feed
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClientConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "remote-quotes",
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 1,
		},
		Logger: testLogger(),
	}
}

func startStack(ctx context.Context, dbPath, remoteURL string, features map[string]bool) (*stack, error) {
	logger := testLogger()

	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	client, err := clients.New(testClientConfig(remoteURL))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating client: %w", err)
	}

	remote := acl.NewPostsClient(acl.PostsClientConfig{Client: client, Logger: logger})

	registry := ports.NewHealthRegistry(time.Second)
	if err := registry.Register(store); err != nil {
		_ = store.Close()
		return nil, err
	}

	if err := registry.Register(ports.Optional(remote)); err != nil {
		_ = store.Close()
		return nil, err
	}

	book := app.NewQuoteBook(store, logger)
	if err := book.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("loading quotes: %w", err)
	}

	sessions := memory.NewSessionStore(time.Hour, memory.WithLogger(logger))
	feed := notify.NewFeed(16, logger)
	syncer := app.NewSyncer(app.SyncerConfig{
		Source:   remote,
		Book:     book,
		Notifier: feed,
		Logger:   logger,
	})

	metrics := prometheus.NewRegistry()
	err = telemetry.RegisterGauges(metrics, "quotekeeper", telemetry.Gauges{
		Quotes:   book.Len,
		Sessions: sessions.Len,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	srv := httpadapter.New(&config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            config.DefaultServerPort,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: time.Second,
		MaxRequestSize:  config.DefaultMaxRequestSize,
	}, logger)

	httpadapter.SetupRouter(srv.Engine(), httpadapter.RouterConfig{
		Logger:      logger,
		ServiceName: "quotekeeper-integration",
		Session:     middleware.SessionConfig{CookieName: config.DefaultSessionCookie},
		HealthHandler: handlers.NewHealthHandler(registry,
			handlers.NewBuildInfo("integration", "none", "now"), metrics),
		QuoteHandler: handlers.NewQuoteHandler(handlers.QuoteHandlerConfig{
			Book: book,
			Presenter: app.NewPresenter(app.PresenterConfig{
				Book:     book,
				Store:    store,
				Sessions: sessions,
				Logger:   logger,
			}),
			Transfer: app.NewTransfer(book, flags.NewStatic(features), app.NewExecutor(logger), logger),
			Syncer:   syncer,
			Feed:     feed,
		}),
		Timeout: httpadapter.DefaultRequestTimeout,
	})

	return &stack{
		server: httptest.NewServer(srv.Engine()),
		store:  store,
		book:   book,
		syncer: syncer,
		feed:   feed,
	}, nil
}

func (s *stack) URL() string {
	return s.server.URL
}

func (s *stack) Close() {
	s.server.Close()
	_ = s.store.Close()
}
