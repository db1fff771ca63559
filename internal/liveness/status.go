package liveness

import (
	"fmt"
	"math"
	"time"
)

// Status is the progress report returned for every session call.
type Status struct {
	Phase      Phase  `json:"phase"`
	BlinkCount int    `json:"blink_count"`
	WaveCount  int    `json:"wave_count"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
	Terminal   bool   `json:"terminal"`
	PhotoPath  string `json:"photo_path,omitempty"`
	PhotoError string `json:"photo_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

// User-facing prompts.
const (
	msgWavePrompt  = "Please wave your hand"
	msgBlinkPrompt = "Please blink your eye"
	msgExcellent   = "Excellent!"
	msgPhotoPrompt = "Kindly move to a clear background for photo capture..."
	msgCaptured    = "Photo captured!"
	msgPhotoFailed = "Verification complete, but the photo could not be saved."
	msgTimedOut    = "KYC process failed due to timeout."
)

// message renders the prompt for the current phase. s.mu must be held.
func (s *Session) message(now time.Time) string {
	switch s.phase {
	case PhaseWave:
		progress := fmt.Sprintf("Waves completed: %d/%d", s.wave.Count(), s.cfg.WavesRequired)
		if !s.handSeen {
			return msgWavePrompt + ". " + progress
		}
		return progress
	case PhaseBlink:
		progress := fmt.Sprintf("Blinks detected: %d/%d", s.blink.Count(), s.cfg.BlinksRequired)
		if !s.faceSeen {
			return msgBlinkPrompt + ". " + progress
		}
		return progress
	case PhaseExcellent:
		return msgExcellent
	case PhasePhotoPrompt:
		return msgPhotoPrompt
	case PhaseCountdown:
		remaining := s.cfg.CountdownDuration - now.Sub(s.phaseStart)
		secs := int(math.Ceil(remaining.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("Photo in %d...", secs)
	case PhaseDone:
		if s.photoErr != "" {
			return msgPhotoFailed
		}
		return msgCaptured
	case PhaseTimedOut:
		return msgTimedOut
	}
	return ""
}

// status snapshots the session. s.mu must be held.
func (s *Session) status(now time.Time) Status {
	return Status{
		Phase:      s.phase,
		BlinkCount: s.blink.Count(),
		WaveCount:  s.wave.Count(),
		Message:    s.message(now),
		Success:    s.phase.Verified(),
		Terminal:   s.phase.Terminal(),
		PhotoPath:  s.photoPath,
		PhotoError: s.photoErr,
	}
}
