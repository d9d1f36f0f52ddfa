package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriaid/agriaid/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

// fakeClock is a manually advanced time source.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func withClock(c *fakeClock) func(o *Options) {
	return func(o *Options) { o.Clock = c.Now }
}

func turn(msg string) core.Turn {
	return core.Turn{ID: core.NewID(), Message: msg, ReplyText: "ok"}
}

func TestInMemoryStore_GetOrCreateFresh(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.GetOrCreate("+254700000001")
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", sess.FarmerID)
	assert.Equal(t, 0, sess.InteractionCount())
}

func TestInMemoryStore_CommitIncrementsCount(t *testing.T) {
	store := NewInMemoryStore()

	for i := 1; i <= 3; i++ {
		count, err := store.CommitTurn("f1", turn(fmt.Sprintf("msg %d", i)))
		require.NoError(t, err)
		assert.Equal(t, i, count, "interaction count should increase by exactly 1 per commit")
	}

	sess, err := store.GetOrCreate("f1")
	require.NoError(t, err)
	assert.Equal(t, 3, sess.InteractionCount())
}

func TestInMemoryStore_TTLEviction(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryStore(withClock(clock))

	_, err := store.CommitTurn("f1", turn("hello"))
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	sess, err := store.GetOrCreate("f1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.InteractionCount(), "session inside TTL must survive")

	clock.Advance(2 * time.Minute)
	sess, err = store.GetOrCreate("f1")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.InteractionCount(), "session older than 1 hour must come back empty")
	assert.Equal(t, clock.Now(), sess.CreatedAt, "eviction must reset created_at")
}

func TestInMemoryStore_InteractionCapEviction(t *testing.T) {
	clock := newFakeClock()
	store := NewInMemoryStore(withClock(clock))

	// 30 commits within the hour: the 30th still belongs to the old session.
	for i := 1; i <= 30; i++ {
		count, err := store.CommitTurn("f1", turn(fmt.Sprintf("msg %d", i)))
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	// The 31st message's access sees a brand-new empty session.
	sess, err := store.GetOrCreate("f1")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.InteractionCount())

	count, err := store.CommitTurn("f1", turn("msg 31"))
	require.NoError(t, err)
	assert.Equal(t, 1, count, "counter resets after cap eviction")
}

func TestInMemoryStore_PeekContextOrder(t *testing.T) {
	store := NewInMemoryStore()

	for _, m := range []string{"a", "b", "c", "d"} {
		_, err := store.CommitTurn("f1", turn(m))
		require.NoError(t, err)
	}

	turns, err := store.PeekContext("f1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "b", turns[0].Message)
	assert.Equal(t, "d", turns[2].Message, "peek must return arrival order, oldest first")

	all, err := store.PeekContext("f1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestInMemoryStore_PeekMissingSessionIsEmpty(t *testing.T) {
	store := NewInMemoryStore()

	turns, err := store.PeekContext("nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestInMemoryStore_FarmersAreIndependent(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.CommitTurn("f1", turn("one"))
	require.NoError(t, err)

	sess, err := store.GetOrCreate("f2")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.InteractionCount())
}

func TestInMemoryStore_ReturnedSessionIsClone(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.CommitTurn("f1", turn("one"))
	require.NoError(t, err)

	sess, err := store.GetOrCreate("f1")
	require.NoError(t, err)
	sess.AppendTurn(turn("never stored"), time.Now())

	fresh, err := store.GetOrCreate("f1")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.InteractionCount(), "mutating a returned clone must not affect the store")
}
