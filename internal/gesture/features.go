// Package gesture turns hand keypoints into committed fingerspelling letters.
//
// A Classifier maps one frame's keypoints to a candidate letter through an
// ordered rule table and smooths its confidence over a short per-letter
// history. A Stabilizer consumes those classifications frame by frame and
// decides when a held letter is committed.
package gesture

import (
	"math"

	"github.com/ayusman/fingerspell/internal/detector"
)

// Finger extension thresholds in normalized image units.
const (
	thumbSpread = 0.04
	tipMargin   = 0.02
)

// Finger indexes into a FingerState.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerState reports which fingers are extended, ordered thumb to pinky.
type FingerState [5]bool

// Distance returns the Euclidean distance between two keypoints in the image plane. Z is ignored.
func Distance(p1, p2 detector.Point3D) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}

// Angle returns the interior angle at vertex, in degrees, of the triangle p1-vertex-p3.
// A zero-length side adjacent to vertex yields 180.
func Angle(p1, vertex, p3 detector.Point3D) float64 {
	a := Distance(vertex, p3)
	b := Distance(p1, p3)
	c := Distance(p1, vertex)

	if a == 0 || c == 0 {
		return 180
	}

	cos := (a*a + c*c - b*b) / (2 * a * c)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// FingersUp derives the extension state of each finger.
//
// The thumb counts as up when its tip is spread sideways from its IP joint;
// the other fingers count as up when the tip sits above the PIP joint.
// Both tests are loose on purpose.
func FingersUp(k []detector.Point3D) FingerState {
	var f FingerState
	f[Thumb] = math.Abs(k[detector.ThumbTip].X-k[detector.ThumbIP].X) > thumbSpread

	tips := [4]int{detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}
	pips := [4]int{detector.IndexPIP, detector.MiddlePIP, detector.RingPIP, detector.PinkyPIP}
	for i := range tips {
		f[i+1] = k[tips[i]].Y < k[pips[i]].Y-tipMargin
	}
	return f
}

// only reports whether exactly the listed fingers are up.
func (f FingerState) only(fingers ...int) bool {
	var want FingerState
	for _, i := range fingers {
		want[i] = true
	}
	return f == want
}

// curled reports whether index through pinky are all down. The thumb is not considered.
func (f FingerState) curled() bool {
	return !f[Index] && !f[Middle] && !f[Ring] && !f[Pinky]
}

// twoUp reports index and middle up with ring and pinky down. The thumb is not considered.
func (f FingerState) twoUp() bool {
	return f[Index] && f[Middle] && !f[Ring] && !f[Pinky]
}
