// Package liveness implements the blink and hand-wave human verification flow.
//
// A Session consumes one video frame per call, forwards it to the wave or
// blink detector depending on its phase, and returns a Status describing
// progress. All timing is evaluated against the injected clock at call time;
// nothing in the package starts goroutines or timers.
package liveness

import "time"

// Config holds the thresholds and timings of a verification session.
type Config struct {
	// Blink detection
	BaselineWindow int           // Face frames averaged into the eye-height baseline
	BlinkRatio     float64       // Blink when current/baseline drops below this
	BlinkDebounce  time.Duration // Minimum gap between two recorded blinks
	BlinksRequired int

	// Wave detection
	HandWindow       int           // Recent wrist positions retained
	WaveDisplacement float64       // Normalized x travel a wave must exceed
	WaveWindow       time.Duration // Time allowed for one wave
	WavesRequired    int

	// Phase timings
	ExcellentDuration time.Duration
	CountdownDuration time.Duration
	SessionTimeout    time.Duration

	// Now is the clock used for every timing decision.
	Now func() time.Time
}

// DefaultConfig returns the thresholds used by the production flow.
func DefaultConfig() Config {
	return Config{
		BaselineWindow: 5,
		BlinkRatio:     0.6,
		BlinkDebounce:  400 * time.Millisecond,
		BlinksRequired: 3,

		HandWindow:       10,
		WaveDisplacement: 0.3,
		WaveWindow:       1500 * time.Millisecond,
		WavesRequired:    2,

		ExcellentDuration: 3 * time.Second,
		CountdownDuration: 5 * time.Second,
		SessionTimeout:    120 * time.Second,

		Now: time.Now,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaselineWindow <= 0 {
		c.BaselineWindow = d.BaselineWindow
	}
	if c.BlinkRatio <= 0 {
		c.BlinkRatio = d.BlinkRatio
	}
	if c.BlinkDebounce <= 0 {
		c.BlinkDebounce = d.BlinkDebounce
	}
	if c.BlinksRequired <= 0 {
		c.BlinksRequired = d.BlinksRequired
	}
	if c.HandWindow <= 0 {
		c.HandWindow = d.HandWindow
	}
	if c.WaveDisplacement <= 0 {
		c.WaveDisplacement = d.WaveDisplacement
	}
	if c.WaveWindow <= 0 {
		c.WaveWindow = d.WaveWindow
	}
	if c.WavesRequired <= 0 {
		c.WavesRequired = d.WavesRequired
	}
	if c.ExcellentDuration <= 0 {
		c.ExcellentDuration = d.ExcellentDuration
	}
	if c.CountdownDuration <= 0 {
		c.CountdownDuration = d.CountdownDuration
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = d.SessionTimeout
	}
	if c.Now == nil {
		c.Now = d.Now
	}
	return c
}
