package gesture

import (
	"fmt"

	"github.com/ayusman/fingerspell/internal/detector"
)

// MinConfidence is the smoothed confidence below which a frame counts as unclassified.
const MinConfidence = 0.40

// Classification is a letter with its confidence in [0,1].
type Classification struct {
	Letter     rune    `json:"letter"`
	Confidence float64 `json:"confidence"`
}

func (c Classification) String() string {
	return fmt.Sprintf("%c (%.2f)", c.Letter, c.Confidence)
}

// Classifier maps keypoints to letters and smooths confidence over its own
// History. Each session owns one Classifier; it is not safe for concurrent use.
type Classifier struct {
	history       *History
	minConfidence float64
}

// NewClassifier creates a Classifier with an empty history that gates at MinConfidence.
func NewClassifier() *Classifier {
	return NewClassifierWithMinConfidence(MinConfidence)
}

// NewClassifierWithMinConfidence creates a Classifier that reports smoothed
// confidences below gate as unclassified. A non-positive gate means MinConfidence.
func NewClassifierWithMinConfidence(gate float64) *Classifier {
	if gate <= 0 {
		gate = MinConfidence
	}
	return &Classifier{
		history:       NewHistory(HistorySize),
		minConfidence: gate,
	}
}

// MinConfidence returns the smoothed confidence gate.
func (c *Classifier) MinConfidence() float64 {
	return c.minConfidence
}

// Candidate returns the first matching rule's letter and base confidence
// without touching the history. Poses without exactly 21 keypoints never match.
func (c *Classifier) Candidate(k []detector.Point3D) (Classification, bool) {
	if len(k) != detector.NumLandmarks {
		return Classification{}, false
	}

	r, ok := match(k)
	if !ok {
		return Classification{}, false
	}
	return Classification{Letter: r.Letter, Confidence: r.Confidence}, true
}

// Classify returns the smoothed classification for one frame. The matched
// letter's base confidence is pushed onto its history; a smoothed confidence
// below the classifier's gate is reported as no classification.
func (c *Classifier) Classify(k []detector.Point3D) (Classification, bool) {
	candidate, ok := c.Candidate(k)
	if !ok {
		return Classification{}, false
	}

	smoothed := c.history.Push(candidate.Letter, candidate.Confidence)
	if smoothed < c.minConfidence {
		return Classification{}, false
	}
	return Classification{Letter: candidate.Letter, Confidence: smoothed}, true
}

// History exposes the classifier's per-letter confidence windows.
func (c *Classifier) History() *History {
	return c.history
}

// Reset clears the confidence history.
func (c *Classifier) Reset() {
	c.history.Reset()
}
