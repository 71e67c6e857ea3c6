package auth

import (
	"sync"
	"time"
)

// SessionTTL is how long a session stays valid, measured from creation.
// There is no renewal: age counts from issuance, not last use.
const SessionTTL = 24 * time.Hour

// Session binds an issued token to a tenant for a bounded lifetime
type Session struct {
	Token     string
	TenantID  string
	CreatedAt time.Time
}

// ResolveOutcome classifies a token lookup for operator logging. Callers
// serving clients must not surface the distinction: use Resolve, which
// collapses unknown and expired into a single absent result.
type ResolveOutcome int

const (
	ResolveOK ResolveOutcome = iota
	ResolveUnknown
	ResolveExpired
)

func (o ResolveOutcome) String() string {
	switch o {
	case ResolveOK:
		return "ok"
	case ResolveExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Store owns the in-memory session map. The raw map is never exposed;
// other components interact only through Issue, Resolve, Revoke and Sweep.
// All operations are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	nowFn    func() time.Time
}

// NewStore creates an empty session store using the wall clock
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates a store with an injectable clock for tests
func NewStoreWithClock(nowFn func() time.Time) *Store {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		nowFn:    nowFn,
	}
}

// Issue creates a session for the tenant and returns its token. An
// outstanding token is never reused: on the (astronomically unlikely)
// collision the token is regenerated.
func (s *Store) Issue(tenantID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		token, err := GenerateToken()
		if err != nil {
			return "", err
		}
		if _, exists := s.sessions[token]; exists {
			continue
		}
		s.sessions[token] = &Session{
			Token:     token,
			TenantID:  tenantID,
			CreatedAt: s.nowFn(),
		}
		return token, nil
	}
}

// Resolve returns the session for a token if it exists and has not
// expired. Expired and unknown tokens behave identically to the caller.
func (s *Store) Resolve(token string) (Session, bool) {
	sess, outcome := s.Inspect(token)
	return sess, outcome == ResolveOK
}

// Inspect is Resolve plus the reason a token did not resolve. The outcome
// exists only so operators get a distinguishable log signal; client
// responses built from it must stay identical for unknown and expired.
func (s *Store) Inspect(token string) (Session, ResolveOutcome) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ResolveUnknown
	}
	if s.nowFn().Sub(sess.CreatedAt) > SessionTTL {
		return Session{}, ResolveExpired
	}
	return *sess, ResolveOK
}

// Revoke removes a session. Revoking an unknown or already-revoked token
// is a no-op.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Sweep removes every session older than SessionTTL as of now and returns
// how many were removed. Safe to run concurrently with the other
// operations.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if now.Sub(sess.CreatedAt) > SessionTTL {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions, including any not yet swept
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
