package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/log"
	"github.com/ayusman/humanv/internal/store"
)

// SessionFactory builds a fresh verification session.
type SessionFactory func() *liveness.Session

// Registry holds the live sessions owned by HTTP callers. Sessions leave the
// registry once they are terminal or abandoned, and each departure is written
// to the attempt log when a store is configured.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*liveness.Session
	factory  SessionFactory
	store    *store.Store
	now      func() time.Time
}

// NewRegistry creates a registry. st may be nil to disable the attempt log.
func NewRegistry(factory SessionFactory, st *store.Store) *Registry {
	return &Registry{
		sessions: make(map[string]*liveness.Session),
		factory:  factory,
		store:    st,
		now:      time.Now,
	}
}

// Create starts a new session and returns its ID.
func (r *Registry) Create() (string, *liveness.Session) {
	id := uuid.New().String()
	sess := r.factory()
	sess.SetLogger(log.With(zap.String("session", id)))

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	log.Info("session created", zap.String("session", id))
	return id, sess
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*liveness.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Settle removes the session if st is terminal and records the outcome.
// It reports whether the session was removed.
func (r *Registry) Settle(id string, st liveness.Status) bool {
	if !st.Terminal {
		return false
	}

	outcome := store.OutcomeTimedOut
	if st.Phase == liveness.PhaseDone {
		outcome = store.OutcomeSuccess
	}
	return r.remove(id, outcome, st)
}

// Abandon removes a session regardless of its phase. A session that already
// reached a terminal phase is recorded with that outcome instead.
func (r *Registry) Abandon(id string) bool {
	sess, ok := r.Get(id)
	if !ok {
		return false
	}

	st := sess.Status()
	if r.Settle(id, st) {
		return true
	}
	return r.remove(id, store.OutcomeAbandoned, st)
}

// Sweep settles every session whose status has become terminal, including
// sessions that timed out while no caller was sending frames.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	live := make(map[string]*liveness.Session, len(r.sessions))
	for id, sess := range r.sessions {
		live[id] = sess
	}
	r.mu.Unlock()

	swept := 0
	for id, sess := range live {
		if r.Settle(id, sess.Status()) {
			swept++
		}
	}
	return swept
}

// Close abandons every remaining session.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Abandon(id)
	}
}

func (r *Registry) remove(id string, outcome store.Outcome, st liveness.Status) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	log.Info("session finished",
		zap.String("session", id),
		zap.String("outcome", string(outcome)),
		zap.Int("blinks", st.BlinkCount),
		zap.Int("waves", st.WaveCount),
	)

	if r.store != nil {
		attempt := &store.Attempt{
			ID:         id,
			Outcome:    outcome,
			BlinkCount: st.BlinkCount,
			WaveCount:  st.WaveCount,
			PhotoPath:  st.PhotoPath,
			PhotoError: st.PhotoError,
			StartedAt:  sess.StartedAt(),
			FinishedAt: r.now(),
		}
		if err := r.store.Attempts().Create(attempt); err != nil {
			log.Error("record attempt failed", zap.String("session", id), zap.Error(err))
		}
	}
	return true
}
