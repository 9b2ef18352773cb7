package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// DefaultIdleTimeout ends sessions that have not been touched for this long.
const DefaultIdleTimeout = 30 * time.Minute

type session struct {
	values   map[string]string
	lastSeen time.Time
}

// SessionStore is a ports.SessionStore whose sessions expire after a period
// without reads or writes.
type SessionStore struct {
	idle   time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// WithLogger sets the logger used by the janitor.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *SessionStore) { s.logger = logger }
}

// NewSessionStore creates a store. A non-positive idle uses DefaultIdleTimeout.
func NewSessionStore(idle time.Duration, opts ...SessionOption) *SessionStore {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	s := &SessionStore{
		idle:     idle,
		now:      time.Now,
		logger:   slog.Default(),
		sessions: make(map[string]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns the session value under key. Reading refreshes the session.
func (s *SessionStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.liveLocked(sessionID)
	if sess == nil {
		return "", domain.NewNotFoundError("session", sessionID)
	}

	v, ok := sess.values[key]
	if !ok {
		return "", domain.NewNotFoundError("session key", key)
	}

	sess.lastSeen = s.now()

	return v, nil
}

// Set stores value under key, starting the session if needed.
func (s *SessionStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.liveLocked(sessionID)
	if sess == nil {
		sess = &session{values: make(map[string]string)}
		s.sessions[sessionID] = sess
	}

	sess.values[key] = value
	sess.lastSeen = s.now()

	return nil
}

// End drops the session. Ending an unknown session is not an error.
func (s *SessionStore) End(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)

	return nil
}

// Len reports the number of sessions held, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) >= s.idle {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed
}

// RunJanitor sweeps every interval until ctx is cancelled.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.DebugContext(ctx, "expired sessions removed", slog.Int("count", n))
			}
		}
	}
}

// liveLocked returns the session unless it is missing or expired; expired
// sessions are dropped on access.
func (s *SessionStore) liveLocked(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	if s.now().Sub(sess.lastSeen) >= s.idle {
		delete(s.sessions, sessionID)
		return nil
	}

	return sess
}
