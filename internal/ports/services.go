// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Storage keys shared by the durable and session stores.
const (
	// KeyQuotes holds the JSON array of every quote in insertion order.
	KeyQuotes = "quotes"

	// KeyCategoryFilter holds the last selected category filter.
	KeyCategoryFilter = "lastCategoryFilter"

	// KeyLastQuote holds the last quote shown in a session.
	KeyLastQuote = "lastQuote"
)

// KeyValueStore is durable string storage that survives process restarts.
//
// Example usage in application layer:
//
//	raw, err := kv.Get(ctx, ports.KeyQuotes)
//	if domain.IsNotFound(err) {
//	    // first run
//	}
type KeyValueStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	// The write is complete when Set returns.
	Set(ctx context.Context, key, value string) error
}

// SessionStore is key-value storage scoped to a single browsing session.
// Values disappear when the session ends.
type SessionStore interface {
	// Get returns the value stored under key for the session.
	// Returns domain.ErrNotFound if the session or key does not exist.
	Get(ctx context.Context, sessionID, key string) (string, error)

	// Set stores value under key for the session and refreshes its lifetime.
	Set(ctx context.Context, sessionID, key, value string) error

	// End discards every value held for the session.
	End(ctx context.Context, sessionID string) error
}

// RemoteQuoteSource fetches quotes from an external service.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map external errors to domain errors
//   - Transform external DTOs to domain types
type RemoteQuoteSource interface {
	// FetchQuotes retrieves up to limit quotes.
	// Returns domain.ErrUnavailable if the service is unreachable or replies badly.
	FetchQuotes(ctx context.Context, limit int) ([]domain.Quote, error)
}

// Notification is a user-visible message raised by background work.
type Notification struct {
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier surfaces notifications to users.
type Notifier interface {
	// Notify records a notification for delivery.
	Notify(ctx context.Context, n Notification)
}
