package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu        sync.Mutex
	face      *FaceLandmarks
	hand      *HandLandmarks
	err       error
	faceCalls int
	handCalls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFace sets the face returned by DetectFace. nil means no face.
func (m *MockDetector) SetFace(face *FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.face = face
}

// SetHand sets the hand returned by DetectHand. nil means no hand.
func (m *MockDetector) SetHand(hand *HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hand = hand
}

// SetError sets the error that will be returned by both detect calls.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// DetectFace returns the pre-configured face or error.
func (m *MockDetector) DetectFace(frame *gocv.Mat) (*FaceLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faceCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.face, nil
}

// DetectHand returns the pre-configured hand or error.
func (m *MockDetector) DetectHand(frame *gocv.Mat) (*HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hand, nil
}

// Calls reports how many times each detect method has been invoked.
func (m *MockDetector) Calls() (face, hand int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faceCalls, m.handCalls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FaceWithEyeHeight returns a face mesh whose eyelid pairs are both
// separated vertically by height (in normalized frame units).
func FaceWithEyeHeight(height float64) *FaceLandmarks {
	face := &FaceLandmarks{Points: make([]Point3D, NumFaceLandmarks)}

	face.Points[LeftEyeTop] = Point3D{X: 0.60, Y: 0.40}
	face.Points[LeftEyeBottom] = Point3D{X: 0.60, Y: 0.40 + height}
	face.Points[RightEyeTop] = Point3D{X: 0.40, Y: 0.40}
	face.Points[RightEyeBottom] = Point3D{X: 0.40, Y: 0.40 + height}

	return face
}

// OpenPalmAt returns an open-palm hand whose wrist sits at the given
// normalized horizontal position.
func OpenPalmAt(x float64) *HandLandmarks {
	hand := &HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	// Fingers fan upward from the wrist
	for i := 0; i < NumHandLandmarks; i++ {
		finger := float64((i+3)/4) - 2.5
		joint := float64((i + 3) % 4)
		hand.Points[i] = Point3D{
			X: x + finger*0.03,
			Y: 0.80 - joint*0.08,
		}
	}
	hand.Points[Wrist] = Point3D{X: x, Y: 0.80}

	return hand
}
