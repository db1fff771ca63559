// Package detector provides face and hand landmark detection for liveness checks.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	MiddleMCP        = 9
	NumHandLandmarks = 21
)

// Face mesh indices for the eyelid pairs used to measure eye opening.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	LeftEyeTop       = 386
	LeftEyeBottom    = 374
	RightEyeTop      = 159
	RightEyeBottom   = 145
	NumFaceLandmarks = 478
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to the frame (0..1).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumHandLandmarks]Point3D `json:"points"`
	Handedness string                    `json:"handedness"` // "Left" or "Right"
	Score      float64                   `json:"score"`
}

// WristX returns the normalized horizontal position of the wrist.
func (h *HandLandmarks) WristX() float64 {
	return h.Points[Wrist].X
}

// FaceLandmarks holds the face mesh points for a single detected face,
// indexed by MediaPipe face mesh landmark number.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Point returns the landmark at idx, or false if the mesh does not contain it.
func (f *FaceLandmarks) Point(idx int) (Point3D, bool) {
	if f == nil || idx < 0 || idx >= len(f.Points) {
		return Point3D{}, false
	}
	return f.Points[idx], true
}

// Distance2D calculates the Euclidean distance between two points in the image plane.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
