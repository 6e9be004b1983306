package gesture

import (
	"math"
	"time"
)

// Params tunes the stabilizer's timing and confidence gates.
type Params struct {
	// Hold is how long one letter must be seen continuously before it is committed.
	Hold time.Duration
	// Cooldown is the quiet period after a commit during which nothing accumulates.
	Cooldown time.Duration
	// MinConfidence is the floor below which a frame counts as no hand.
	MinConfidence float64
	// EmitConfidence is the confidence required on the committing frame.
	EmitConfidence float64
}

// DefaultParams returns the standard one second hold and 1.5 second cooldown.
func DefaultParams() Params {
	return Params{
		Hold:           time.Second,
		Cooldown:       1500 * time.Millisecond,
		MinConfidence:  MinConfidence,
		EmitConfidence: 0.45,
	}
}

// Update is the stabilizer's report for one frame.
type Update struct {
	// Candidate is the frame's classification; zero when nothing was recognized.
	Candidate         Classification
	HoldProgress      float64
	CooldownRemaining time.Duration
	// Emitted is the committed letter, or 0 when this frame committed nothing.
	Emitted rune
}

// State is a snapshot of the stabilizer's internal state.
type State struct {
	Letter       rune
	Holding      bool
	HoldStart    time.Time
	LastEmission time.Time
}

// Stabilizer debounces per-frame classifications into committed letters.
// A letter is committed once it has been held for Params.Hold with enough
// confidence, and never within Params.Cooldown of the previous commit.
// It is not safe for concurrent use.
type Stabilizer struct {
	params Params

	letter    rune
	holding   bool
	holdStart time.Time

	emitted      bool
	lastEmission time.Time
}

// NewStabilizer creates an idle Stabilizer.
func NewStabilizer(params Params) *Stabilizer {
	return &Stabilizer{params: params}
}

// Params returns the stabilizer's configuration.
func (s *Stabilizer) Params() Params {
	return s.params
}

// Update advances the state machine by one frame observed at now.
// ok is false when the frame produced no classification.
func (s *Stabilizer) Update(c Classification, ok bool, now time.Time) Update {
	if !ok || c.Confidence < s.params.MinConfidence {
		s.letter = 0
		s.clearHold()
		return Update{CooldownRemaining: s.CooldownRemaining(now)}
	}

	u := Update{Candidate: c}

	if remaining := s.CooldownRemaining(now); remaining > 0 {
		s.clearHold()
		u.CooldownRemaining = remaining
		return u
	}

	if c.Letter != s.letter {
		s.letter = c.Letter
		s.clearHold()
		return u
	}

	// A frame stamped before the hold began restarts the hold from that frame.
	if !s.holding || now.Before(s.holdStart) {
		s.holding = true
		s.holdStart = now
	}

	held := now.Sub(s.holdStart)
	u.HoldProgress = math.Min(float64(held)/float64(s.params.Hold), 1.0)

	if held >= s.params.Hold && c.Confidence >= s.params.EmitConfidence {
		u.Emitted = c.Letter
		u.HoldProgress = 0
		u.CooldownRemaining = s.params.Cooldown

		s.letter = 0
		s.clearHold()
		s.emitted = true
		s.lastEmission = now
	}

	return u
}

// CooldownRemaining returns how much of the post-commit cooldown is left at now.
func (s *Stabilizer) CooldownRemaining(now time.Time) time.Duration {
	if !s.emitted {
		return 0
	}

	elapsed := now.Sub(s.lastEmission)
	switch {
	case elapsed < 0:
		return s.params.Cooldown
	case elapsed >= s.params.Cooldown:
		return 0
	}
	return s.params.Cooldown - elapsed
}

// State returns a snapshot of the current state.
func (s *Stabilizer) State() State {
	return State{
		Letter:       s.letter,
		Holding:      s.holding,
		HoldStart:    s.holdStart,
		LastEmission: s.lastEmission,
	}
}

// Reset returns the stabilizer to idle and forgets the last commit.
func (s *Stabilizer) Reset() {
	s.letter = 0
	s.clearHold()
	s.emitted = false
	s.lastEmission = time.Time{}
}

func (s *Stabilizer) clearHold() {
	s.holding = false
	s.holdStart = time.Time{}
}
