package liveness

import (
	"time"

	"github.com/ayusman/humanv/internal/detector"
)

// waveAttempt is a single in-progress wave measured from its first frame.
type waveAttempt struct {
	start  time.Time
	startX float64
	maxX   float64
}

// displacement is how far the wrist has reached past the start position.
// Movement back toward smaller x never counts.
func (a *waveAttempt) displacement() float64 {
	return a.maxX - a.startX
}

// WaveDetector counts single-sweep hand waves tracked by wrist x position.
type WaveDetector struct {
	threshold float64
	window    time.Duration
	required  int
	history   int

	positions []float64
	attempt   *waveAttempt
	count     int
	verified  bool
}

// NewWaveDetector creates a detector using the wave settings from cfg.
func NewWaveDetector(cfg Config) *WaveDetector {
	cfg = cfg.withDefaults()
	return &WaveDetector{
		threshold: cfg.WaveDisplacement,
		window:    cfg.WaveWindow,
		required:  cfg.WavesRequired,
		history:   cfg.HandWindow,
		positions: make([]float64, 0, cfg.HandWindow),
	}
}

// OnFrame processes the hand seen at now and returns true when the frame
// completed a wave. Losing the hand abandons the current attempt.
func (w *WaveDetector) OnFrame(hand *detector.HandLandmarks, now time.Time) bool {
	if hand == nil {
		w.attempt = nil
		return false
	}
	return w.ObservePosition(hand.WristX(), now)
}

// ObservePosition processes one wrist x position taken at now.
func (w *WaveDetector) ObservePosition(x float64, now time.Time) bool {
	w.remember(x)

	if w.attempt == nil {
		w.begin(x, now)
		return false
	}

	a := w.attempt
	if x > a.maxX {
		a.maxX = x
	}

	if now.Sub(a.start) > w.window {
		// Expired: this frame anchors a fresh attempt.
		w.begin(x, now)
		return false
	}

	if a.displacement() <= w.threshold {
		return false
	}

	w.count++
	w.attempt = nil
	if w.count >= w.required {
		w.verified = true
	}
	return true
}

func (w *WaveDetector) begin(x float64, now time.Time) {
	w.attempt = &waveAttempt{start: now, startX: x, maxX: x}
}

func (w *WaveDetector) remember(x float64) {
	if len(w.positions) == w.history {
		copy(w.positions, w.positions[1:])
		w.positions = w.positions[:w.history-1]
	}
	w.positions = append(w.positions, x)
}

// Count returns the number of completed waves.
func (w *WaveDetector) Count() int { return w.count }

// Verified reports whether the required number of waves has been reached.
func (w *WaveDetector) Verified() bool { return w.verified }

// InProgress reports whether a wave attempt is currently being measured.
func (w *WaveDetector) InProgress() bool { return w.attempt != nil }

// Positions returns the recent wrist positions, oldest first.
func (w *WaveDetector) Positions() []float64 {
	out := make([]float64, len(w.positions))
	copy(out, w.positions)
	return out
}
