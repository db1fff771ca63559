package liveness

// Phase is a step of the verification flow.
type Phase string

// Phases in the order a successful session visits them.
const (
	PhaseWave        Phase = "wave"
	PhaseBlink       Phase = "blink"
	PhaseExcellent   Phase = "excellent"
	PhasePhotoPrompt Phase = "photo_prompt"
	PhaseCountdown   Phase = "countdown"
	PhaseDone        Phase = "done"
	PhaseTimedOut    Phase = "timed_out"
)

// Terminal reports whether no further transition can leave the phase.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseTimedOut
}

// Verified reports whether both gestures have been completed by the time
// a session reaches p.
func (p Phase) Verified() bool {
	switch p {
	case PhaseExcellent, PhasePhotoPrompt, PhaseCountdown, PhaseDone:
		return true
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}
