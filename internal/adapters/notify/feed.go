// Package notify holds user notifications until a client collects them.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// DefaultCapacity bounds how many undelivered notifications are retained.
const DefaultCapacity = 50

// Feed is a bounded ports.Notifier. When full, the oldest notification is
// discarded. Notifications are shared by every client: the first Drain
// receives them.
type Feed struct {
	capacity int
	logger   *slog.Logger

	mu      sync.Mutex
	pending []ports.Notification
}

// NewFeed creates a feed. A non-positive capacity uses DefaultCapacity.
func NewFeed(capacity int, logger *slog.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Feed{capacity: capacity, logger: logger}
}

// Notify queues n.
func (f *Feed) Notify(ctx context.Context, n ports.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) == f.capacity {
		f.logger.DebugContext(ctx, "notification feed full, dropping oldest")
		f.pending = f.pending[1:]
	}

	f.pending = append(f.pending, n)
}

// Drain returns every queued notification, oldest first, and empties the feed.
func (f *Feed) Drain() []ports.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.pending
	f.pending = nil

	if out == nil {
		return []ports.Notification{}
	}

	return out
}
