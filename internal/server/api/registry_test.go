package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/store"
)

func TestRegistry_CreateGet(t *testing.T) {
	h := newHarness(t)

	id1, s1 := h.registry.Create()
	id2, _ := h.registry.Create()

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, h.registry.Len())

	got, ok := h.registry.Get(id1)
	require.True(t, ok)
	assert.Same(t, s1, got)

	_, ok = h.registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_SettleIgnoresLiveSessions(t *testing.T) {
	h := newHarness(t)
	id, sess := h.registry.Create()

	assert.False(t, h.registry.Settle(id, sess.Status()))
	assert.Equal(t, 1, h.registry.Len())
}

func TestRegistry_SettleRecordsOnce(t *testing.T) {
	h := newHarness(t)
	id, sess := h.registry.Create()

	h.clock.Advance(2 * time.Minute)
	st := sess.Status()
	require.True(t, st.Terminal)

	assert.True(t, h.registry.Settle(id, st))
	assert.False(t, h.registry.Settle(id, st), "second settle is a no-op")

	attempts, err := h.store.Attempts().List(0)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, store.OutcomeTimedOut, attempts[0].Outcome)
	assert.Equal(t, 2*time.Minute, attempts[0].Duration())
}

func TestRegistry_Sweep(t *testing.T) {
	h := newHarness(t)
	stale, _ := h.registry.Create()

	h.clock.Advance(100 * time.Second)
	fresh, _ := h.registry.Create()

	h.clock.Advance(30 * time.Second)
	assert.Equal(t, 1, h.registry.Sweep())

	_, ok := h.registry.Get(stale)
	assert.False(t, ok)
	_, ok = h.registry.Get(fresh)
	assert.True(t, ok)
}

func TestRegistry_AbandonTerminalKeepsOutcome(t *testing.T) {
	h := newHarness(t)
	id, _ := h.registry.Create()

	h.clock.Advance(121 * time.Second)
	require.True(t, h.registry.Abandon(id))

	attempt, err := h.store.Attempts().GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, store.OutcomeTimedOut, attempt.Outcome)
}

func TestRegistry_Close(t *testing.T) {
	h := newHarness(t)
	h.registry.Create()
	h.registry.Create()

	h.registry.Close()

	assert.Equal(t, 0, h.registry.Len())
	counts, err := h.store.Attempts().CountByOutcome()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[store.OutcomeAbandoned])
}

func TestRegistry_WithoutStore(t *testing.T) {
	cfg := liveness.DefaultConfig()
	r := NewRegistry(func() *liveness.Session {
		return liveness.NewSession(cfg, nil, nil)
	}, nil)

	id, _ := r.Create()
	assert.True(t, r.Abandon(id))
	assert.Equal(t, 0, r.Len())
}
