package gesture

import (
	"time"

	"github.com/ayusman/fingerspell/internal/detector"
)

// Engine runs the full per-frame path: classify, smooth, stabilize.
// One Engine belongs to one session.
type Engine struct {
	classifier *Classifier
	stabilizer *Stabilizer
}

// NewEngine creates an Engine with a fresh history and an idle stabilizer.
// params.MinConfidence gates both the classifier and the stabilizer.
func NewEngine(params Params) *Engine {
	return &Engine{
		classifier: NewClassifierWithMinConfidence(params.MinConfidence),
		stabilizer: NewStabilizer(params),
	}
}

// Process handles one frame. A nil or malformed keypoint slice is treated as no hand.
func (e *Engine) Process(k []detector.Point3D, now time.Time) Update {
	c, ok := e.classifier.Classify(k)
	return e.stabilizer.Update(c, ok, now)
}

// CooldownRemaining reports the cooldown left at now without consuming a frame.
func (e *Engine) CooldownRemaining(now time.Time) time.Duration {
	return e.stabilizer.CooldownRemaining(now)
}

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// Stabilizer returns the engine's stabilizer.
func (e *Engine) Stabilizer() *Stabilizer {
	return e.stabilizer
}

// Reset clears the confidence history and the stabilizer state.
func (e *Engine) Reset() {
	e.classifier.Reset()
	e.stabilizer.Reset()
}
