package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	_ ports.KeyValueStore = (*KeyValueStore)(nil)
	_ ports.SessionStore  = (*SessionStore)(nil)
)

func TestKeyValueStore(t *testing.T) {
	ctx := context.Background()
	kv := NewKeyValueStore()

	_, err := kv.Get(ctx, ports.KeyQuotes)
	require.True(t, domain.IsNotFound(err))

	require.NoError(t, kv.Set(ctx, ports.KeyQuotes, "[]"))
	require.NoError(t, kv.Set(ctx, ports.KeyQuotes, `[{"text":"a","category":"b"}]`))

	got, err := kv.Get(ctx, ports.KeyQuotes)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"a","category":"b"}]`, got)
}

func TestSessionStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)

	require.NoError(t, store.Set(ctx, "s1", ports.KeyLastQuote, "one"))
	require.NoError(t, store.Set(ctx, "s2", ports.KeyLastQuote, "two"))

	v, err := store.Get(ctx, "s1", ports.KeyLastQuote)
	require.NoError(t, err)
	assert.Equal(t, "one", v)

	require.NoError(t, store.End(ctx, "s1"))

	_, err = store.Get(ctx, "s1", ports.KeyLastQuote)
	assert.True(t, domain.IsNotFound(err))

	v, err = store.Get(ctx, "s2", ports.KeyLastQuote)
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestSessionStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)

	require.NoError(t, store.Set(ctx, "s1", "other", "x"))

	_, err := store.Get(ctx, "s1", ports.KeyLastQuote)
	assert.True(t, domain.IsNotFound(err))
}

func TestSessionStore_IdleExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewSessionStore(10*time.Minute, WithClock(clock.Now))

	require.NoError(t, store.Set(ctx, "s1", ports.KeyLastQuote, "q"))

	clock.Advance(9 * time.Minute)
	_, err := store.Get(ctx, "s1", ports.KeyLastQuote)
	require.NoError(t, err, "activity inside the window keeps the session")

	clock.Advance(9 * time.Minute)
	_, err = store.Get(ctx, "s1", ports.KeyLastQuote)
	require.NoError(t, err, "the previous read refreshed the session")

	clock.Advance(10 * time.Minute)
	_, err = store.Get(ctx, "s1", ports.KeyLastQuote)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewSessionStore(time.Minute, WithClock(clock.Now))

	require.NoError(t, store.Set(ctx, "old", ports.KeyLastQuote, "q"))
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Set(ctx, "fresh", ports.KeyLastQuote, "q"))

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_RunJanitorStopsOnCancel(t *testing.T) {
	store := NewSessionStore(time.Millisecond)
	require.NoError(t, store.Set(context.Background(), "s1", ports.KeyLastQuote, "q"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- store.RunJanitor(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
