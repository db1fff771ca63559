package liveness

import (
	"time"

	"github.com/ayusman/humanv/internal/detector"
)

// BlinkDetector turns per-frame eye heights into debounced blink events.
type BlinkDetector struct {
	ratio    float64
	debounce time.Duration
	required int

	tracker   *EyeTracker
	count     int
	lastBlink time.Time
	blinked   bool
	verified  bool
}

// NewBlinkDetector creates a detector using the blink settings from cfg.
func NewBlinkDetector(cfg Config) *BlinkDetector {
	cfg = cfg.withDefaults()
	return &BlinkDetector{
		ratio:    cfg.BlinkRatio,
		debounce: cfg.BlinkDebounce,
		required: cfg.BlinksRequired,
		tracker:  NewEyeTracker(cfg.BaselineWindow),
	}
}

// OnFrame processes the face seen at now. A nil face leaves all state untouched.
// It returns true when the frame recorded a blink.
func (b *BlinkDetector) OnFrame(face *detector.FaceLandmarks, now time.Time) bool {
	if face == nil {
		return false
	}
	height, ok := EyeHeight(face)
	if !ok {
		return false
	}
	return b.ObserveHeight(height, now)
}

// ObserveHeight processes one eye-height measurement taken at now.
func (b *BlinkDetector) ObserveHeight(height float64, now time.Time) bool {
	b.tracker.Observe(height)

	baseline, ok := b.tracker.Baseline()
	if !ok || baseline <= 0 {
		return false
	}

	if height/baseline >= b.ratio {
		return false
	}
	if b.blinked && now.Sub(b.lastBlink) < b.debounce {
		return false
	}

	b.count++
	b.lastBlink = now
	b.blinked = true
	if b.count >= b.required {
		b.verified = true
	}
	return true
}

// Count returns the number of blinks recorded so far.
func (b *BlinkDetector) Count() int { return b.count }

// Verified reports whether the required number of blinks has been reached.
func (b *BlinkDetector) Verified() bool { return b.verified }

// Baseline exposes the frozen eye-height baseline.
func (b *BlinkDetector) Baseline() (float64, bool) { return b.tracker.Baseline() }
