package detector

import "gocv.io/x/gocv"

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// DetectFace analyzes a video frame and returns the face mesh of the
	// most prominent face, or nil if no face is found.
	DetectFace(frame *gocv.Mat) (*FaceLandmarks, error)

	// DetectHand analyzes a video frame and returns the landmarks of the
	// first detected hand, or nil if no hand is found.
	DetectHand(frame *gocv.Mat) (*HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleTimeoutSec stops the landmark service after this many idle seconds.
	IdleTimeoutSec int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
		IdleTimeoutSec:  30,
	}
}
