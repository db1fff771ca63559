// Package app runs a verification session against a local camera.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/humanv/internal/capture"
	"github.com/ayusman/humanv/internal/detector"
	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/log"
	"github.com/ayusman/humanv/internal/store"
)

// Config holds configuration options for the local verification loop.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Photos   liveness.PhotoSaver
	Store    *store.Store // optional attempt log
	Liveness liveness.Config
	FPS      int

	// OnStatus is called from the loop whenever the phase or message changes.
	OnStatus func(liveness.Status)
}

// App owns one verification session and the camera feeding it.
type App struct {
	config  Config
	id      string
	session *liveness.Session
	readyCh chan struct{}

	mu      sync.RWMutex
	last    liveness.Status
	running bool
}

// New creates an App with a fresh session.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}

	id := uuid.New().String()
	session := liveness.NewSession(config.Liveness, config.Detector, config.Photos)
	session.SetLogger(log.With(zap.String("session", id)))

	return &App{
		config:  config,
		id:      id,
		session: session,
		readyCh: make(chan struct{}, 1),
		last:    session.Status(),
	}
}

// ID returns the session ID used in logs and the attempt log.
func (a *App) ID() string {
	return a.id
}

// Ready delivers the ready signal to the loop. Extra signals before the loop
// consumes the first one are dropped.
func (a *App) Ready() {
	select {
	case a.readyCh <- struct{}{}:
	default:
	}
}

// Status returns the most recent status produced by the loop.
func (a *App) Status() liveness.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// IsRunning reports whether Run is in progress.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Run opens the camera and processes frames until the session is terminal or
// ctx is cancelled. It returns the final status; a cancelled run also returns
// ctx.Err() and is recorded as abandoned.
func (a *App) Run(ctx context.Context) (liveness.Status, error) {
	if err := a.config.Camera.Open(); err != nil {
		return a.Status(), err
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			log.Warn("close camera failed", zap.Error(err))
		}
	}()
	a.config.Camera.SetFPS(a.config.FPS)

	a.setRunning(true)
	defer a.setRunning(false)

	log.Info("verification started", zap.String("session", a.id), zap.Int("fps", a.config.FPS))
	a.publish(a.session.Status())

	st, err := a.loop(ctx)

	outcome := store.OutcomeAbandoned
	switch st.Phase {
	case liveness.PhaseDone:
		outcome = store.OutcomeSuccess
	case liveness.PhaseTimedOut:
		outcome = store.OutcomeTimedOut
	}
	a.record(outcome, st)

	return st, err
}

func (a *App) record(outcome store.Outcome, st liveness.Status) {
	log.Info("verification finished",
		zap.String("session", a.id),
		zap.String("outcome", string(outcome)),
		zap.Int("blinks", st.BlinkCount),
		zap.Int("waves", st.WaveCount),
		zap.String("photo", st.PhotoPath),
	)

	if a.config.Store == nil {
		return
	}

	attempt := &store.Attempt{
		ID:         a.id,
		Outcome:    outcome,
		BlinkCount: st.BlinkCount,
		WaveCount:  st.WaveCount,
		PhotoPath:  st.PhotoPath,
		PhotoError: st.PhotoError,
		StartedAt:  a.session.StartedAt(),
		FinishedAt: time.Now(),
	}
	if err := a.config.Store.Attempts().Create(attempt); err != nil {
		log.Error("record attempt failed", zap.Error(err))
	}
}

func (a *App) setRunning(running bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = running
}

// publish stores st and notifies OnStatus when something visible changed.
func (a *App) publish(st liveness.Status) {
	a.mu.Lock()
	changed := st.Phase != a.last.Phase || st.Message != a.last.Message
	a.last = st
	a.mu.Unlock()

	if changed && a.config.OnStatus != nil {
		a.config.OnStatus(st)
	}
}
