package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// EmptyCategoryMessage is shown when a filter selects no quotes.
const EmptyCategoryMessage = "No quotes available for this category."

// Display is what the client renders for the current quote.
// Quote is nil when the filter selected nothing; Message then says so.
type Display struct {
	Quote    *domain.Quote
	Message  string
	Filter   string
	Restored bool
}

// Presenter picks the quote to show and remembers it per session.
type Presenter struct {
	book     *QuoteBook
	kv       ports.KeyValueStore
	sessions ports.SessionStore
	logger   *slog.Logger
	intN     func(n int) int
}

// PresenterConfig contains the presenter's dependencies.
type PresenterConfig struct {
	Book     *QuoteBook
	Store    ports.KeyValueStore
	Sessions ports.SessionStore
	Logger   *slog.Logger

	// IntN returns a uniform value in [0, n). Defaults to math/rand/v2.IntN.
	IntN func(n int) int
}

// NewPresenter creates a presenter.
func NewPresenter(cfg PresenterConfig) *Presenter {
	p := &Presenter{
		book:     cfg.Book,
		kv:       cfg.Store,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
		intN:     cfg.IntN,
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	if p.intN == nil {
		p.intN = rand.IntN
	}

	return p
}

// PickAndShow draws a uniformly random quote matching filter and records it
// as the session's last shown quote. An empty candidate set leaves the
// session untouched and returns the empty-category message.
func (p *Presenter) PickAndShow(ctx context.Context, sessionID, filter string) (Display, error) {
	filter = domain.NormalizeFilter(filter)
	candidates := p.book.Matching(filter)

	if len(candidates) == 0 {
		return Display{Filter: filter, Message: EmptyCategoryMessage}, nil
	}

	q := candidates[p.intN(len(candidates))]
	p.remember(ctx, sessionID, q)

	return Display{Quote: &q, Filter: filter}, nil
}

// RestoreOnStart returns the session's last shown quote without drawing, or
// draws one under the stored filter when the session has none.
func (p *Presenter) RestoreOnStart(ctx context.Context, sessionID string) (Display, error) {
	filter := p.Filter(ctx)

	if q, ok := p.lastShown(ctx, sessionID); ok {
		return Display{Quote: &q, Filter: filter, Restored: true}, nil
	}

	return p.PickAndShow(ctx, sessionID, filter)
}

// SetFilter stores the filter selection and draws a quote under it.
func (p *Presenter) SetFilter(ctx context.Context, sessionID, value string) (Display, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Display{}, domain.NewValidationError("filter", "must not be empty")
	}

	if err := p.kv.Set(ctx, ports.KeyCategoryFilter, value); err != nil {
		return Display{}, fmt.Errorf("persisting filter: %w", err)
	}

	return p.PickAndShow(ctx, sessionID, value)
}

// Filter returns the stored filter selection, FilterAll when none is stored.
func (p *Presenter) Filter(ctx context.Context) string {
	value, err := p.kv.Get(ctx, ports.KeyCategoryFilter)
	if err != nil {
		if !domain.IsNotFound(err) {
			p.logger.WarnContext(ctx, "reading filter failed", slog.Any("error", err))
		}

		return domain.FilterAll
	}

	return domain.NormalizeFilter(value)
}

// EndSession forgets everything remembered for the session.
func (p *Presenter) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return p.sessions.End(ctx, sessionID)
}

func (p *Presenter) remember(ctx context.Context, sessionID string, q domain.Quote) {
	if sessionID == "" {
		return
	}

	raw, err := json.Marshal(q)
	if err != nil {
		p.logger.WarnContext(ctx, "encoding last quote failed", slog.Any("error", err))
		return
	}

	// Losing the remembered quote only costs a fresh draw on the next visit.
	if err := p.sessions.Set(ctx, sessionID, ports.KeyLastQuote, string(raw)); err != nil {
		p.logger.WarnContext(ctx, "storing last quote failed", slog.Any("error", err))
	}
}

func (p *Presenter) lastShown(ctx context.Context, sessionID string) (domain.Quote, bool) {
	if sessionID == "" {
		return domain.Quote{}, false
	}

	raw, err := p.sessions.Get(ctx, sessionID, ports.KeyLastQuote)
	if err != nil {
		if !domain.IsNotFound(err) {
			p.logger.WarnContext(ctx, "reading last quote failed", slog.Any("error", err))
		}

		return domain.Quote{}, false
	}

	var q domain.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		p.logger.WarnContext(ctx, "stored last quote unreadable", slog.Any("error", err))
		return domain.Quote{}, false
	}

	return q, true
}
