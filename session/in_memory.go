package session

import (
	"sync"
	"time"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
)

// Options configure an InMemoryStore.
type Options struct {
	// TTL is the maximum session age before eviction. Default one hour.
	TTL time.Duration
	// MaxInteractions is the interaction count at which the session is
	// evicted on the farmer's next access. Default 30.
	MaxInteractions int
	// Clock supplies the current time; override in tests.
	Clock func() time.Time
	// Logger receives eviction and commit diagnostics.
	Logger logging.Logger
}

// InMemoryStore is a volatile core.SessionStore keeping sessions in a process
// local map. Eviction is evaluated lazily whenever a farmer's session is
// accessed: a session past its TTL or at its interaction cap is discarded and
// replaced atomically with a fresh empty one. The store is safe for
// concurrent access; returned sessions are clones so callers cannot mutate
// internal state.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*core.Session

	ttl    time.Duration
	maxInt int
	clock  func() time.Time
	logger logging.Logger
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{
		TTL:             time.Hour,
		MaxInteractions: 30,
		Clock:           time.Now,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		ttl:      opts.TTL,
		maxInt:   opts.MaxInteractions,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// GetOrCreate implements core.SessionStore. The eviction invariant is
// evaluated first: an expired session is replaced before anything is
// returned, so callers always observe either a live session or a fresh one
// with zero interactions.
func (s *InMemoryStore) GetOrCreate(farmerID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveSessionLocked(farmerID).Clone(), nil
}

// CommitTurn appends a turn to the farmer's current session and returns the
// new interaction count. A missing session is synonymous with an empty new
// one. Reaching the interaction cap does not evict here; eviction happens on
// the farmer's next access so the current pipeline still returns its reply.
func (s *InMemoryStore) CommitTurn(farmerID string, turn core.Turn) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.liveSessionLocked(farmerID)
	now := s.clock()
	sess.AppendTurn(turn, now)
	count := sess.InteractionCount()
	if count >= s.maxInt {
		s.logger.Debug("session reached interaction cap, evicting on next access", "farmer_id", farmerID, "count", count)
	}
	return count, nil
}

// PeekContext returns at most k trailing turns in arrival order (oldest
// first) from the farmer's live session.
func (s *InMemoryStore) PeekContext(farmerID string, k int) ([]core.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveSessionLocked(farmerID).LastTurns(k), nil
}

// liveSessionLocked returns the farmer's current non-expired session,
// creating or replacing one as needed. Caller must hold the lock.
func (s *InMemoryStore) liveSessionLocked(farmerID string) *core.Session {
	now := s.clock()
	sess, ok := s.sessions[farmerID]
	if ok && sess.ExpiredBy(now, s.ttl, s.maxInt) {
		s.logger.Debug("evicting expired session", "farmer_id", farmerID, "age", now.Sub(sess.CreatedAt), "interactions", sess.InteractionCount())
		ok = false
	}
	if !ok {
		sess = core.NewSession(farmerID, now)
		s.sessions[farmerID] = sess
	}
	return sess
}
