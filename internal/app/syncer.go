package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Sync defaults.
const (
	DefaultSyncInterval = 30 * time.Second
	DefaultSyncLimit    = 5
	DefaultSyncCategory = "Server"
)

// SyncResult reports one reconciliation cycle.
type SyncResult struct {
	Fetched int            `json:"fetched"`
	Added   int            `json:"added"`
	Quotes  []domain.Quote `json:"quotes"`
}

// SyncerConfig contains the syncer's dependencies and schedule.
type SyncerConfig struct {
	Source   ports.RemoteQuoteSource
	Book     *QuoteBook
	Notifier ports.Notifier
	Logger   *slog.Logger

	Interval time.Duration
	Limit    int
	Category string
}

// Syncer periodically unions the remote quote list into the book.
// At most one cycle runs at a time; a tick that arrives while a cycle is
// in flight is skipped.
type Syncer struct {
	source   ports.RemoteQuoteSource
	book     *QuoteBook
	notifier ports.Notifier
	logger   *slog.Logger

	interval time.Duration
	limit    int
	category string

	inFlight atomic.Bool
	metrics  *syncMetrics
	now      func() time.Time
}

// NewSyncer creates a syncer, filling zero schedule values with defaults.
func NewSyncer(cfg SyncerConfig) *Syncer {
	s := &Syncer{
		source:   cfg.Source,
		book:     cfg.Book,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		limit:    cfg.Limit,
		category: cfg.Category,
		metrics:  newSyncMetrics(),
		now:      time.Now,
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.interval <= 0 {
		s.interval = DefaultSyncInterval
	}

	if s.limit <= 0 {
		s.limit = DefaultSyncLimit
	}

	if s.category == "" {
		s.category = DefaultSyncCategory
	}

	return s
}

// Run syncs once per interval until ctx is cancelled. Cycle failures are
// logged and the next tick tries again.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "remote sync started",
		slog.Duration("interval", s.interval),
		slog.Int("limit", s.limit),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "remote sync stopped")
			return nil
		case <-ticker.C:
			_, err := s.cycle(ctx)

			switch {
			case err == nil:
			case domain.IsConflict(err):
				s.logger.DebugContext(ctx, "sync tick skipped, previous cycle still running")
			case ctx.Err() != nil:
				return nil
			default:
				s.logger.WarnContext(ctx, "sync cycle failed", slog.Any("error", err))
			}
		}
	}
}

// SyncNow runs one cycle immediately. It returns a ConflictError when a
// cycle is already in flight.
func (s *Syncer) SyncNow(ctx context.Context) (SyncResult, error) {
	return s.cycle(ctx)
}

func (s *Syncer) cycle(ctx context.Context) (SyncResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.record(ctx, "skipped", 0, 0)
		return SyncResult{}, domain.NewConflictError("sync", "a sync cycle is already running")
	}
	defer s.inFlight.Store(false)

	start := time.Now()

	fetched, err := s.source.FetchQuotes(ctx, s.limit)
	if err != nil {
		s.metrics.record(ctx, "failed", time.Since(start), 0)
		return SyncResult{}, fmt.Errorf("fetching remote quotes: %w", err)
	}

	incoming := make([]domain.Quote, 0, len(fetched))
	for _, q := range fetched {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}

		// Remote categories are never trusted.
		incoming = append(incoming, domain.Quote{Text: text, Category: s.category})
	}

	added, err := s.book.Merge(ctx, incoming)
	if err != nil {
		s.metrics.record(ctx, "failed", time.Since(start), 0)
		return SyncResult{}, fmt.Errorf("merging remote quotes: %w", err)
	}

	s.metrics.record(ctx, "succeeded", time.Since(start), len(added))

	if len(added) > 0 {
		msg := fmt.Sprintf("%d new quote(s) synced from server.", len(added))
		s.logger.InfoContext(ctx, msg, slog.Int("fetched", len(fetched)))

		if s.notifier != nil {
			s.notifier.Notify(ctx, ports.Notification{
				Message:   msg,
				Count:     len(added),
				CreatedAt: s.now(),
			})
		}
	} else {
		s.logger.DebugContext(ctx, "sync found nothing new", slog.Int("fetched", len(fetched)))
	}

	if added == nil {
		added = []domain.Quote{}
	}

	return SyncResult{Fetched: len(fetched), Added: len(added), Quotes: added}, nil
}

type syncMetrics struct {
	cycles   metric.Int64Counter
	added    metric.Int64Counter
	duration metric.Float64Histogram
}

func newSyncMetrics() *syncMetrics {
	meter := otel.Meter(instrumentationName)
	m := &syncMetrics{}

	var err error

	m.cycles, err = meter.Int64Counter("quotekeeper.sync.cycles",
		metric.WithDescription("Remote sync cycles by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}

	m.added, err = meter.Int64Counter("quotekeeper.sync.quotes_added",
		metric.WithDescription("Quotes appended by remote sync"),
	)
	if err != nil {
		otel.Handle(err)
	}

	m.duration, err = meter.Float64Histogram("quotekeeper.sync.duration",
		metric.WithDescription("Remote sync cycle duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return m
}

func (m *syncMetrics) record(ctx context.Context, outcome string, elapsed time.Duration, added int) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	if m.cycles != nil {
		m.cycles.Add(ctx, 1, attrs)
	}

	if m.added != nil && added > 0 {
		m.added.Add(ctx, int64(added))
	}

	if m.duration != nil && elapsed > 0 {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
