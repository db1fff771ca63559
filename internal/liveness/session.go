package liveness

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/humanv/internal/detector"
	"github.com/ayusman/humanv/internal/log"
)

// Session errors.
var (
	ErrInvalidFrame     = errors.New("invalid frame")
	ErrNotAwaitingReady = errors.New("session is not waiting for the ready signal")
	ErrSessionTerminal  = errors.New("session has finished")
)

// PhotoSaver persists the captured frame and returns where it was stored.
type PhotoSaver interface {
	Save(frame *gocv.Mat) (string, error)
}

// Session is one verification attempt. It is safe for concurrent use, but
// frames are expected to arrive in capture order from a single caller.
type Session struct {
	mu       sync.Mutex
	cfg      Config
	detector detector.Detector
	photos   PhotoSaver
	logger   *zap.Logger

	blink *BlinkDetector
	wave  *WaveDetector

	phase      Phase
	startedAt  time.Time
	phaseStart time.Time
	handSeen   bool
	faceSeen   bool
	photoPath  string
	photoErr   string
}

// NewSession starts a session at cfg.Now(). photos may be nil, in which case
// the Done phase is reached without a stored photo.
func NewSession(cfg Config, det detector.Detector, photos PhotoSaver) *Session {
	cfg = cfg.withDefaults()
	now := cfg.Now()

	return &Session{
		cfg:        cfg,
		detector:   det,
		photos:     photos,
		logger:     log.L(),
		blink:      NewBlinkDetector(cfg),
		wave:       NewWaveDetector(cfg),
		phase:      PhaseWave,
		startedAt:  now,
		phaseStart: now,
	}
}

// SetLogger attaches a logger, typically one carrying the session ID.
func (s *Session) SetLogger(l *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// ProcessFrame advances the session with one captured frame.
//
// An invalid frame or a detector failure leaves the session untouched and
// returns the current status with Error set, in every phase. A terminal
// session ignores valid frames.
func (s *Session) ProcessFrame(frame *gocv.Mat) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Now()
	s.tick(now)

	if frame == nil || frame.Empty() {
		st := s.status(now)
		st.Error = ErrInvalidFrame.Error()
		return st, ErrInvalidFrame
	}
	if s.phase.Terminal() {
		return s.status(now), nil
	}

	switch s.phase {
	case PhaseWave:
		hand, err := s.detector.DetectHand(frame)
		if err != nil {
			return s.detectFailed(now, "detect hand", err)
		}
		s.handSeen = hand != nil
		if s.wave.OnFrame(hand, now) {
			s.logger.Info("wave detected", zap.Int("count", s.wave.Count()))
		}
		if s.wave.Verified() {
			s.enter(PhaseBlink, now)
		}

	case PhaseBlink:
		face, err := s.detector.DetectFace(frame)
		if err != nil {
			return s.detectFailed(now, "detect face", err)
		}
		s.faceSeen = face != nil
		if s.blink.OnFrame(face, now) {
			s.logger.Info("blink detected", zap.Int("count", s.blink.Count()))
		}
		if s.blink.Verified() {
			s.enter(PhaseExcellent, now)
		}

	case PhaseCountdown:
		if now.Sub(s.phaseStart) >= s.cfg.CountdownDuration {
			s.capture(frame)
			s.enter(PhaseDone, now)
		}
	}

	return s.status(now), nil
}

// Ready delivers the external ready signal, moving PhotoPrompt to Countdown.
func (s *Session) Ready() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Now()
	s.tick(now)

	switch {
	case s.phase.Terminal():
		return s.status(now), ErrSessionTerminal
	case s.phase != PhasePhotoPrompt:
		return s.status(now), ErrNotAwaitingReady
	}

	s.enter(PhaseCountdown, now)
	return s.status(now), nil
}

// Status returns the current status after applying any elapsed timers.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Now()
	s.tick(now)
	return s.status(now)
}

// Phase returns the current phase without evaluating timers.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Expired reports whether the session timeout has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return now.Sub(s.startedAt) > s.cfg.SessionTimeout
}

// tick applies the time-driven transitions. s.mu must be held.
func (s *Session) tick(now time.Time) {
	if s.phase.Terminal() {
		return
	}
	if s.Expired(now) {
		s.enter(PhaseTimedOut, now)
		return
	}
	if s.phase == PhaseExcellent && now.Sub(s.phaseStart) > s.cfg.ExcellentDuration {
		s.enter(PhasePhotoPrompt, now)
	}
}

func (s *Session) enter(next Phase, now time.Time) {
	s.logger.Info("phase changed",
		zap.String("from", s.phase.String()),
		zap.String("to", next.String()),
		zap.Duration("elapsed", now.Sub(s.startedAt)),
	)
	s.phase = next
	s.phaseStart = now
}

func (s *Session) capture(frame *gocv.Mat) {
	if s.photos == nil {
		return
	}
	path, err := s.photos.Save(frame)
	if err != nil {
		s.photoErr = err.Error()
		s.logger.Warn("photo capture failed", zap.Error(err))
		return
	}
	s.photoPath = path
	s.logger.Info("photo captured", zap.String("path", path))
}

func (s *Session) detectFailed(now time.Time, op string, err error) (Status, error) {
	err = fmt.Errorf("%s: %w", op, err)
	s.logger.Debug("detection failed", zap.Error(err))
	st := s.status(now)
	st.Error = err.Error()
	return st, err
}
