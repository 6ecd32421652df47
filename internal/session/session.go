// Package session provides the per-chat session store for SchoolBot.
//
// Each chat identity owns one Session: its current dialogue state plus a
// scratch map of profile and transient fields. Sessions live in memory for
// the process lifetime, are cleared on logout, and are swept by a TTL
// eviction loop so idle conversations do not grow the store unbounded.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/edusuite/schoolbot/internal/models"
)

// DefaultTTL is how long an idle session survives before eviction.
const DefaultTTL = 24 * time.Hour

// DefaultSweepInterval is how often the eviction loop scans for idle sessions.
const DefaultSweepInterval = 15 * time.Minute

// Session holds one chat identity's dialogue position and scratch data.
// Callers must hold the session's lock (via Store.Lock) while reading or
// mutating it, which also guarantees at most one in-flight transition per
// chat.
type Session struct {
	Key      string
	State    models.StateType
	scratch  map[models.DataKey]string
	lastSeen time.Time
	mu       sync.Mutex
}

// Get returns a scratch field value, or "" when absent.
func (s *Session) Get(key models.DataKey) string {
	return s.scratch[key]
}

// Set stores a scratch field value.
func (s *Session) Set(key models.DataKey, value string) {
	s.scratch[key] = value
}

// Delete removes a scratch field.
func (s *Session) Delete(key models.DataKey) {
	delete(s.scratch, key)
}

// Has reports whether a scratch field is present.
func (s *Session) Has(key models.DataKey) bool {
	_, ok := s.scratch[key]
	return ok
}

// Role returns the session's role scratch field.
func (s *Session) Role() models.Role {
	return models.Role(s.scratch[models.DataKeyRole])
}

// Reset clears all scratch data and returns the session to role selection.
func (s *Session) Reset() {
	s.scratch = make(map[models.DataKey]string)
	s.State = models.StateRoleSelect
}

// Snapshot returns a copy of the scratch map for inspection (admin surface).
func (s *Session) Snapshot() map[models.DataKey]string {
	out := make(map[models.DataKey]string, len(s.scratch))
	for k, v := range s.scratch {
		out[k] = v
	}
	return out
}

// Store is the process-wide session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// StoreOption configures a session Store.
type StoreOption func(*Store)

// WithTTL sets the idle eviction TTL.
func WithTTL(ttl time.Duration) StoreOption {
	return func(st *Store) {
		st.ttl = ttl
	}
}

// NewStore creates a session store with the given options.
func NewStore(opts ...StoreOption) *Store {
	st := &Store{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		opt(st)
	}
	slog.Debug("Session store created", "ttl", st.ttl)
	return st
}

// Lock returns the session for the given chat key, creating it in the
// initial state on first use, with its transition lock held. The caller
// must call the returned unlock function when the transition completes.
func (st *Store) Lock(key string) (*Session, func()) {
	st.mu.Lock()
	sess, ok := st.sessions[key]
	if !ok {
		sess = &Session{
			Key:     key,
			State:   models.StateRoleSelect,
			scratch: make(map[models.DataKey]string),
		}
		st.sessions[key] = sess
		slog.Debug("Session created", "key", key)
	}
	sess.lastSeen = time.Now()
	st.mu.Unlock()

	sess.mu.Lock()
	return sess, sess.mu.Unlock
}

// Peek returns the session for the given key without creating or locking
// it. Returns nil when absent.
func (st *Store) Peek(key string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[key]
}

// Clear removes the session for the given key entirely.
func (st *Store) Clear(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, key)
	slog.Info("Session cleared", "key", key)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// States returns a count of live sessions per dialogue state.
func (st *Store) States() map[models.StateType]int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make(map[models.StateType]int)
	for _, sess := range st.sessions {
		out[sess.State]++
	}
	return out
}

// StartEviction runs the TTL sweep loop until the context is cancelled.
func (st *Store) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(DefaultSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.evictIdle()
			case <-ctx.Done():
				slog.Debug("Session eviction loop stopping")
				return
			}
		}
	}()
}

// evictIdle removes sessions idle longer than the TTL.
func (st *Store) evictIdle() {
	cutoff := time.Now().Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	evicted := 0
	for key, sess := range st.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(st.sessions, key)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("Session eviction sweep completed", "evicted", evicted, "remaining", len(st.sessions))
	}
}
