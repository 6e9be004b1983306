package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// fingers selects which digits a fixture pose extends.
type fingers struct {
	thumbOut, index, middle, ring, pinky bool
}

// Fixed joint layout of a right hand, palm facing the camera, wrist low in the frame.
var (
	fixtureWrist = Point3D{X: 0.50, Y: 0.90}
	fixtureMCP   = [4]Point3D{{X: 0.56, Y: 0.70}, {X: 0.50, Y: 0.68}, {X: 0.45, Y: 0.70}, {X: 0.40, Y: 0.72}}
	fixturePIP   = [4]Point3D{{X: 0.56, Y: 0.60}, {X: 0.50, Y: 0.58}, {X: 0.45, Y: 0.60}, {X: 0.40, Y: 0.64}}
	fixtureUp    = [4]Point3D{{X: 0.56, Y: 0.45}, {X: 0.50, Y: 0.42}, {X: 0.45, Y: 0.45}, {X: 0.40, Y: 0.50}}
	fixtureDown  = [4]Point3D{{X: 0.55, Y: 0.66}, {X: 0.50, Y: 0.64}, {X: 0.45, Y: 0.66}, {X: 0.40, Y: 0.70}}
)

var fixtureTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// fixturePose lays out a hand with the given digits extended. The thumb tip
// rests just beside the index tip, close enough that no pinch-based letter fires.
func fixturePose(f fingers) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = fixtureWrist
	h.Points[ThumbCMC] = Point3D{X: 0.58, Y: 0.85}
	h.Points[ThumbMCP] = Point3D{X: 0.63, Y: 0.78}

	up := [4]bool{f.index, f.middle, f.ring, f.pinky}
	for i, tip := range fixtureTips {
		mcp, pip := tip-3, tip-2
		h.Points[mcp] = fixtureMCP[i]
		h.Points[pip] = fixturePIP[i]
		if up[i] {
			h.Points[tip] = fixtureUp[i]
		} else {
			h.Points[tip] = fixtureDown[i]
		}
		h.Points[tip-1] = midpoint(h.Points[pip], h.Points[tip])
	}

	index := h.Points[IndexTip]
	placeThumb(&h, Point3D{X: index.X + 0.03, Y: index.Y + 0.03}, f.thumbOut)
	return h
}

// placeThumb puts the thumb tip at tip. An outward thumb has its IP joint
// 0.08 to the side of the tip; a tucked thumb keeps it nearly in line.
func placeThumb(h *HandLandmarks, tip Point3D, out bool) {
	dx := 0.01
	if out {
		dx = 0.08
	}
	h.Points[ThumbTip] = tip
	h.Points[ThumbIP] = Point3D{X: tip.X - dx, Y: tip.Y + 0.05}
}

func midpoint(a, b Point3D) Point3D {
	return Point3D{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}

// letterFixtures builds one representative pose per letter that the rule
// table can actually produce.
var letterFixtures = map[rune]func() HandLandmarks{
	'A': func() HandLandmarks { return fixturePose(fingers{thumbOut: true}) },
	'B': func() HandLandmarks { return fixturePose(fingers{index: true, middle: true, ring: true, pinky: true}) },
	'C': func() HandLandmarks {
		h := fixturePose(fingers{})
		index := h.Points[IndexTip]
		placeThumb(&h, Point3D{X: index.X - 0.30, Y: index.Y - 0.40}, false)
		return h
	},
	'D': func() HandLandmarks { return fixturePose(fingers{index: true}) },
	'E': func() HandLandmarks { return fixturePose(fingers{}) },
	'F': func() HandLandmarks { return fixturePose(fingers{middle: true, ring: true, pinky: true}) },
	'G': func() HandLandmarks { return fixturePose(fingers{thumbOut: true, index: true}) },
	'H': func() HandLandmarks { return fixturePose(fingers{index: true, middle: true}) },
	'I': func() HandLandmarks { return fixturePose(fingers{pinky: true}) },
	'K': func() HandLandmarks {
		h := fixturePose(fingers{thumbOut: true, index: true, middle: true})
		h.Points[IndexTip] = Point3D{X: 0.85, Y: 0.50}
		h.Points[IndexDIP] = midpoint(h.Points[IndexPIP], h.Points[IndexTip])
		placeThumb(&h, Point3D{X: 0.88, Y: 0.53}, true)
		return h
	},
	'M': func() HandLandmarks {
		h := fixturePose(fingers{})
		placeThumb(&h, Point3D{X: 0.00, Y: 0.05}, false)
		return h
	},
	'O': func() HandLandmarks {
		h := fixturePose(fingers{})
		index := h.Points[IndexTip]
		placeThumb(&h, Point3D{X: index.X - 0.12, Y: index.Y - 0.16}, false)
		return h
	},
	'R': func() HandLandmarks { return fixturePose(fingers{thumbOut: true, index: true, middle: true}) },
	'V': func() HandLandmarks {
		h := fixturePose(fingers{thumbOut: true, index: true, middle: true})
		h.Points[IndexTip] = Point3D{X: 0.95, Y: 0.55}
		h.Points[MiddleTip] = Point3D{X: 0.20, Y: 0.40}
		h.Points[IndexDIP] = midpoint(h.Points[IndexPIP], h.Points[IndexTip])
		h.Points[MiddleDIP] = midpoint(h.Points[MiddlePIP], h.Points[MiddleTip])
		placeThumb(&h, Point3D{X: 0.98, Y: 0.58}, true)
		return h
	},
	'W': func() HandLandmarks { return fixturePose(fingers{index: true, middle: true, ring: true}) },
	'Y': func() HandLandmarks { return fixturePose(fingers{thumbOut: true, pinky: true}) },
}

// LetterLandmarks returns a preset pose that classifies as letter.
// The second result is false for letters with no reachable fixture.
func LetterLandmarks(letter rune) (HandLandmarks, bool) {
	build, ok := letterFixtures[letter]
	if !ok {
		return HandLandmarks{}, false
	}
	return build(), true
}

// FixtureLetters lists the letters LetterLandmarks can build, in alphabet order.
func FixtureLetters() []rune {
	var letters []rune
	for _, r := range "ABCDEFGHIKLMNOPQRSTUVWXY" {
		if _, ok := letterFixtures[r]; ok {
			letters = append(letters, r)
		}
	}
	return letters
}
