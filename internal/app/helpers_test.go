package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadedBook returns a book over an in-memory store holding quotes, or the
// seed when quotes is nil.
func loadedBook(t *testing.T, quotes []domain.Quote) (*QuoteBook, *memory.KeyValueStore) {
	t.Helper()

	kv := memory.NewKeyValueStore()
	if quotes != nil {
		raw, err := json.Marshal(quotes)
		require.NoError(t, err)
		require.NoError(t, kv.Set(context.Background(), ports.KeyQuotes, string(raw)))
	}

	book := NewQuoteBook(kv, discardLogger())
	require.NoError(t, book.Load(context.Background()))

	return book, kv
}

// storedQuotes decodes what the book last persisted.
func storedQuotes(t *testing.T, kv ports.KeyValueStore) []domain.Quote {
	t.Helper()

	raw, err := kv.Get(context.Background(), ports.KeyQuotes)
	require.NoError(t, err)

	var quotes []domain.Quote
	require.NoError(t, json.Unmarshal([]byte(raw), &quotes))

	return quotes
}
