package core

import (
	"sync"
	"time"
)

// Session is the bounded per-farmer conversation container: an ordered
// sequence of Turns plus the timestamps and counter the eviction policy is
// evaluated against. It is safe for concurrent access.
//
// Invariants:
//   - InteractionCount() always equals the number of committed Turns
//   - Turns are append-only; GetTurns returns a defensive copy
//   - At most one Session per farmer exists at any time; the store replaces
//     an expired session atomically on next access
type Session struct {
	FarmerID   string    `json:"farmer_id"`
	Turns      []Turn    `json:"turns"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	mu         sync.RWMutex
}

// NewSession creates an empty session for the farmer anchored at now.
func NewSession(farmerID string, now time.Time) *Session {
	return &Session{FarmerID: farmerID, Turns: []Turn{}, CreatedAt: now, LastActive: now}
}

// AppendTurn appends a committed turn and advances LastActive.
func (s *Session) AppendTurn(turn Turn, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Turns = append(s.Turns, turn)
	s.LastActive = now
}

// InteractionCount returns the number of committed turns.
func (s *Session) InteractionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Turns)
}

// GetTurns returns a copy of the full turn history, oldest first.
func (s *Session) GetTurns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}

// LastTurns returns at most k trailing turns in arrival order (oldest first).
func (s *Session) LastTurns(k int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 || k > len(s.Turns) {
		k = len(s.Turns)
	}
	turns := make([]Turn, k)
	copy(turns, s.Turns[len(s.Turns)-k:])
	return turns
}

// ExpiredBy reports whether the session is past either eviction boundary:
// older than ttl, or holding maxTurns or more interactions. First-to-trigger.
func (s *Session) ExpiredBy(now time.Time, ttl time.Duration, maxTurns int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ttl > 0 && now.Sub(s.CreatedAt) > ttl {
		return true
	}
	return maxTurns > 0 && len(s.Turns) >= maxTurns
}

// Clone returns a deep copy of the session safe for independent reads.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{FarmerID: s.FarmerID, Turns: make([]Turn, len(s.Turns)), CreatedAt: s.CreatedAt, LastActive: s.LastActive}
	copy(clone.Turns, s.Turns)
	return clone
}

// SessionStore owns all Session/Turn data for its lifetime. The orchestrator
// never mutates a session's turns directly; all writes go through CommitTurn.
type SessionStore interface {
	// GetOrCreate returns the farmer's current session, discarding and
	// replacing it with a fresh empty one first if it is expired by time or
	// interaction count. A missing session is synonymous with a new one.
	GetOrCreate(farmerID string) (*Session, error)

	// CommitTurn appends a completed turn and returns the new interaction
	// count. Reaching the interaction limit marks the session for eviction on
	// the farmer's next access; the current pipeline still completes.
	CommitTurn(farmerID string, turn Turn) (int, error)

	// PeekContext returns at most k trailing turns in arrival order (oldest
	// first) for prompt construction.
	PeekContext(farmerID string, k int) ([]Turn, error)
}
