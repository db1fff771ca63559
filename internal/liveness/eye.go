package liveness

import "github.com/ayusman/humanv/internal/detector"

// EyeHeight returns the mean top-to-bottom eyelid distance of both eyes.
// It reports false when the mesh lacks any of the eyelid landmarks.
func EyeHeight(face *detector.FaceLandmarks) (float64, bool) {
	lt, ok1 := face.Point(detector.LeftEyeTop)
	lb, ok2 := face.Point(detector.LeftEyeBottom)
	rt, ok3 := face.Point(detector.RightEyeTop)
	rb, ok4 := face.Point(detector.RightEyeBottom)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, false
	}

	left := detector.Distance2D(lt, lb)
	right := detector.Distance2D(rt, rb)
	return (left + right) / 2, true
}

// EyeTracker keeps the most recent eye heights and freezes a baseline
// from the first full window. The baseline never changes afterwards.
type EyeTracker struct {
	size     int
	window   []float64
	baseline float64
	frozen   bool
}

// NewEyeTracker creates a tracker whose window and baseline span size samples.
func NewEyeTracker(size int) *EyeTracker {
	if size <= 0 {
		size = 1
	}
	return &EyeTracker{
		size:   size,
		window: make([]float64, 0, size),
	}
}

// Observe appends height to the window, dropping the oldest sample when full.
// The first time the window fills, its mean becomes the baseline.
func (t *EyeTracker) Observe(height float64) {
	if len(t.window) == t.size {
		copy(t.window, t.window[1:])
		t.window = t.window[:t.size-1]
	}
	t.window = append(t.window, height)

	if !t.frozen && len(t.window) == t.size {
		var sum float64
		for _, h := range t.window {
			sum += h
		}
		t.baseline = sum / float64(t.size)
		t.frozen = true
	}
}

// Baseline returns the frozen baseline, or false before the window first fills.
func (t *EyeTracker) Baseline() (float64, bool) {
	return t.baseline, t.frozen
}

// Samples returns a copy of the current window, oldest first.
func (t *EyeTracker) Samples() []float64 {
	out := make([]float64, len(t.window))
	copy(out, t.window)
	return out
}
