// Package detector provides hand detection interfaces and keypoint types for letter recognition.
package detector

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrInvalidPose is returned when a keypoint sequence does not have exactly NumLandmarks points.
var ErrInvalidPose = errors.New("invalid hand pose")

// Point3D is one keypoint. X and Y are normalized to [0,1] in image space
// (Y grows downward); Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// NewHandLandmarks builds a HandLandmarks from a keypoint slice.
// Returns ErrInvalidPose unless the slice holds exactly NumLandmarks points.
func NewHandLandmarks(points []Point3D) (*HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d keypoints, want %d", ErrInvalidPose, len(points), NumLandmarks)
	}

	h := &HandLandmarks{}
	copy(h.Points[:], points)
	return h, nil
}

// Keypoints returns the landmarks as a slice in anatomical index order.
// A nil hand yields a nil slice.
func (h *HandLandmarks) Keypoints() []Point3D {
	if h == nil {
		return nil
	}
	return h.Points[:]
}
