// Package auth isolates credential comparison and retry policy from the
// dialogue handlers.
//
// The external spreadsheets store passwords and security answers verbatim,
// so the shipping Verifier compares plaintext. That is a recorded finding,
// not a goal: swapping in a salted-hash scheme only requires a new Verifier
// implementation, with the caveat that it changes the external data format.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"sync"
	"time"
)

// Verifier compares a typed secret against the stored credential.
type Verifier interface {
	// Verify reports whether input matches the stored credential.
	Verify(stored, input string) bool
}

// PlaintextVerifier matches the external datastore's verbatim storage.
// Comparison is case-sensitive and constant-time.
type PlaintextVerifier struct{}

// NewPlaintextVerifier creates the plaintext credential verifier.
func NewPlaintextVerifier() *PlaintextVerifier {
	return &PlaintextVerifier{}
}

// Verify compares the stored plaintext against the input byte-exactly.
func (v *PlaintextVerifier) Verify(stored, input string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(input)) == 1
}

// AttemptLimiter gates retries at the authentication and recovery
// transitions. The default is no limiting, matching the behavior of the
// system this replaces (unlimited retries, no lockout).
type AttemptLimiter interface {
	// Allow reports whether another attempt is permitted for the key.
	Allow(key string) bool
	// RecordFailure notes a failed attempt for the key.
	RecordFailure(key string)
	// Reset clears attempt history for the key (called on success).
	Reset(key string)
}

// NoopLimiter permits every attempt.
type NoopLimiter struct{}

// NewNoopLimiter creates the pass-through attempt limiter.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow always permits the attempt.
func (l *NoopLimiter) Allow(string) bool { return true }

// RecordFailure is a no-op.
func (l *NoopLimiter) RecordFailure(string) {}

// Reset is a no-op.
func (l *NoopLimiter) Reset(string) {}

// WindowLimiter blocks a key after maxFailures failed attempts within the
// window. Available for deployments that want lockout behavior.
type WindowLimiter struct {
	mu          sync.Mutex
	failures    map[string][]time.Time
	maxFailures int
	window      time.Duration
}

// NewWindowLimiter creates a limiter allowing maxFailures failed attempts
// per window before blocking.
func NewWindowLimiter(maxFailures int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		failures:    make(map[string][]time.Time),
		maxFailures: maxFailures,
		window:      window,
	}
}

// Allow reports whether the key is under its failure budget.
func (l *WindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	recent := l.recentLocked(key)
	l.failures[key] = recent
	allowed := len(recent) < l.maxFailures
	if !allowed {
		slog.Warn("WindowLimiter blocking attempt", "key", key, "failures", len(recent), "window", l.window)
	}
	return allowed
}

// RecordFailure notes a failed attempt for the key.
func (l *WindowLimiter) RecordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key] = append(l.recentLocked(key), time.Now())
}

// Reset clears attempt history for the key.
func (l *WindowLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
}

// recentLocked returns the failures still inside the window.
func (l *WindowLimiter) recentLocked(key string) []time.Time {
	cutoff := time.Now().Add(-l.window)
	var recent []time.Time
	for _, t := range l.failures[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}
