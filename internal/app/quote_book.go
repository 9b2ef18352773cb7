// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// QuoteBook is the single owner of the ordered quote list.
// Every mutation is written through to durable storage before the lock is
// released, so readers never observe an unpersisted quote.
type QuoteBook struct {
	kv     ports.KeyValueStore
	logger *slog.Logger

	mu         sync.RWMutex
	quotes     []domain.Quote
	categories []string
}

// NewQuoteBook creates an empty book backed by kv. Call Load before use.
func NewQuoteBook(kv ports.KeyValueStore, logger *slog.Logger) *QuoteBook {
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteBook{kv: kv, logger: logger}
}

// Load reads the persisted list. A missing or unreadable document yields the
// seed quotes; the seed is not written back until the first mutation.
func (b *QuoteBook) Load(ctx context.Context) error {
	raw, err := b.kv.Get(ctx, ports.KeyQuotes)

	var quotes []domain.Quote

	switch {
	case domain.IsNotFound(err):
		b.logger.InfoContext(ctx, "no stored quotes, starting from seed")
	case err != nil:
		return fmt.Errorf("loading quotes: %w", err)
	default:
		if jsonErr := json.Unmarshal([]byte(raw), &quotes); jsonErr != nil || quotes == nil {
			b.logger.WarnContext(ctx, "stored quotes unreadable, starting from seed", slog.Any("error", jsonErr))
			quotes = nil
		}
	}

	if quotes == nil {
		quotes = domain.SeedQuotes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.quotes = quotes
	b.reindex()

	b.logger.InfoContext(ctx, "quotes loaded", slog.Int("count", len(quotes)))

	return nil
}

// Add trims and validates the input, then appends and persists the quote.
func (b *QuoteBook) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.appendLocked(ctx, []domain.Quote{q}); err != nil {
		return domain.Quote{}, err
	}

	return q, nil
}

// Append adds quotes as given, in order, with a single write.
func (b *QuoteBook) Append(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.appendLocked(ctx, quotes)
}

// Merge appends each quote whose text is not already present, local entries
// winning. Duplicates inside quotes are collapsed to their first occurrence.
// It returns the quotes actually added and writes only when there are some.
func (b *QuoteBook) Merge(ctx context.Context, quotes []domain.Quote) ([]domain.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	known := make(map[string]struct{}, len(b.quotes)+len(quotes))
	for _, q := range b.quotes {
		known[q.Text] = struct{}{}
	}

	var added []domain.Quote
	for _, q := range quotes {
		if _, ok := known[q.Text]; ok {
			continue
		}

		known[q.Text] = struct{}{}
		added = append(added, q)
	}

	if len(added) == 0 {
		return nil, nil
	}

	if err := b.appendLocked(ctx, added); err != nil {
		return nil, err
	}

	return added, nil
}

// appendLocked appends and persists, restoring the previous list if the
// write fails. Callers hold the write lock.
func (b *QuoteBook) appendLocked(ctx context.Context, quotes []domain.Quote) error {
	prev := len(b.quotes)
	b.quotes = append(b.quotes, quotes...)

	if err := b.persistLocked(ctx); err != nil {
		clear(b.quotes[prev:])
		b.quotes = b.quotes[:prev]

		return err
	}

	b.reindex()

	b.logger.DebugContext(ctx, "quotes appended",
		slog.Int("added", len(quotes)),
		slog.Int("total", len(b.quotes)),
	)

	return nil
}

func (b *QuoteBook) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(b.quotes)
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	if err := b.kv.Set(ctx, ports.KeyQuotes, string(raw)); err != nil {
		return fmt.Errorf("persisting quotes: %w", err)
	}

	return nil
}

func (b *QuoteBook) reindex() {
	b.categories = domain.Categories(b.quotes)
}

// Snapshot returns a copy of every quote in insertion order.
func (b *QuoteBook) Snapshot() []domain.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.Quote, len(b.quotes))
	copy(out, b.quotes)

	return out
}

// Len reports the number of quotes.
func (b *QuoteBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.quotes)
}

// Categories returns the distinct categories in first-seen order.
func (b *QuoteBook) Categories() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.categories))
	copy(out, b.categories)

	return out
}

// Matching returns the quotes selected by filter.
func (b *QuoteBook) Matching(filter string) []domain.Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.Quote
	for _, q := range b.quotes {
		if q.Matches(filter) {
			out = append(out, q)
		}
	}

	return out
}

// Page returns up to limit quotes starting at offset, plus the total count.
func (b *QuoteBook) Page(offset, limit int) ([]domain.Quote, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := len(b.quotes)
	if offset < 0 {
		offset = 0
	}

	if offset >= total || limit <= 0 {
		return []domain.Quote{}, total
	}

	end := min(offset+limit, total)
	out := make([]domain.Quote, end-offset)
	copy(out, b.quotes[offset:end])

	return out, total
}
