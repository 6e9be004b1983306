// Package session binds a recognition engine to one stream of frames and the
// text it spells.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/gesture"
)

const subscriberBuffer = 16

// Snapshot is the live state sent to clients after each frame.
type Snapshot struct {
	SessionID         string  `json:"session"`
	Letter            string  `json:"letter"`
	Confidence        float64 `json:"confidence"`
	HoldProgress      float64 `json:"hold_progress"`
	CooldownRemaining float64 `json:"cooldown_remaining"`
	Emitted           string  `json:"emitted,omitempty"`
	Text              string  `json:"text"`
	FPS               float64 `json:"fps"`
}

// Emission describes one committed letter.
type Emission struct {
	SessionID  string
	Source     string
	Letter     rune
	Confidence float64
	At         time.Time
	// Text is the session's text after the letter was appended.
	Text string
}

// Summary describes a closed session.
type Summary struct {
	SessionID string
	Source    string
	Text      string
	Letters   int
	StartedAt time.Time
	EndedAt   time.Time
}

// Sink receives committed letters and closed sessions.
type Sink interface {
	LetterCommitted(e Emission)
	SessionClosed(s Summary)
}

// Session owns one engine and serializes the frames fed to it.
type Session struct {
	id        string
	source    string
	startedAt time.Time
	sinks     []Sink
	logger    *zap.Logger
	clock     func() time.Time

	mu         sync.Mutex
	lastActive time.Time
	engine    *gesture.Engine
	composer  Composer
	fps       FPSMeter
	letters   int
	candidate gesture.Classification
	closed    bool

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

func newSession(id, source string, params gesture.Params, sinks []Sink, logger *zap.Logger, clock func() time.Time) *Session {
	now := clock()
	return &Session{
		id:         id,
		source:     source,
		startedAt:  now,
		sinks:      sinks,
		logger:     logger.With(zap.String("session", id)),
		clock:      clock,
		lastActive: now,
		engine:     gesture.NewEngine(params),
		subs:       make(map[int]chan Snapshot),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Source names where the session's frames come from.
func (s *Session) Source() string {
	return s.source
}

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Process runs one frame through the engine. A nil hand means no hand was detected.
// Frames that arrive after the session is closed are ignored.
func (s *Session) Process(hand *detector.HandLandmarks, now time.Time) Snapshot {
	s.mu.Lock()
	if s.closed {
		snap := Snapshot{SessionID: s.id, Text: s.composer.String()}
		s.mu.Unlock()
		return snap
	}
	s.lastActive = s.clock()
	s.fps.Tick(now)
	u := s.engine.Process(hand.Keypoints(), now)
	s.candidate = u.Candidate

	var emission *Emission
	if u.Emitted != 0 {
		s.composer.Append(u.Emitted)
		s.letters++
		emission = &Emission{
			SessionID:  s.id,
			Source:     s.source,
			Letter:     u.Emitted,
			Confidence: u.Candidate.Confidence,
			At:         now,
			Text:       s.composer.String(),
		}
	}

	snap := Snapshot{
		SessionID:         s.id,
		HoldProgress:      u.HoldProgress,
		CooldownRemaining: u.CooldownRemaining.Seconds(),
		Text:              s.composer.String(),
		FPS:               s.fps.FPS(),
	}
	if u.Candidate.Letter != 0 {
		snap.Letter = string(u.Candidate.Letter)
		snap.Confidence = u.Candidate.Confidence
	}
	if u.Emitted != 0 {
		snap.Emitted = string(u.Emitted)
	}
	s.mu.Unlock()

	if emission != nil {
		s.logger.Debug("letter committed",
			zap.String("letter", string(emission.Letter)),
			zap.Float64("confidence", emission.Confidence),
		)
		for _, sink := range s.sinks {
			sink.LetterCommitted(*emission)
		}
	}

	s.publish(snap)
	return snap
}

// State reports the live state at now without consuming a frame.
func (s *Session) State(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(now)
}

func (s *Session) stateLocked(now time.Time) Snapshot {
	st := s.engine.Stabilizer().State()
	params := s.engine.Stabilizer().Params()

	snap := Snapshot{
		SessionID:         s.id,
		CooldownRemaining: s.engine.CooldownRemaining(now).Seconds(),
		Text:              s.composer.String(),
		FPS:               s.fps.FPS(),
	}
	if s.candidate.Letter != 0 {
		snap.Letter = string(s.candidate.Letter)
		snap.Confidence = s.candidate.Confidence
	}
	if st.Holding && params.Hold > 0 {
		snap.HoldProgress = min(1, float64(now.Sub(st.HoldStart))/float64(params.Hold))
		if snap.HoldProgress < 0 {
			snap.HoldProgress = 0
		}
	}
	return snap
}

// Text returns the composed text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer.String()
}

// Edit applies a text operation and publishes the new state.
func (s *Session) Edit(op Op, now time.Time) (Snapshot, error) {
	s.mu.Lock()
	if err := s.composer.Apply(op); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.lastActive = s.clock()
	snap := s.stateLocked(now)
	s.mu.Unlock()

	s.publish(snap)
	return snap, nil
}

// Reset clears the engine and the composed text.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
	s.composer.Apply(OpClear) //nolint:errcheck
	s.fps.Reset()
	s.candidate = gesture.Classification{}
}

// idleFor reports how long the session has gone without a frame or an edit as
// of now. A session with a live subscriber is never idle.
func (s *Session) idleFor(now time.Time) time.Duration {
	s.subMu.Lock()
	watched := len(s.subs) > 0
	s.subMu.Unlock()
	if watched {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idle := now.Sub(s.lastActive); idle > 0 {
		return idle
	}
	return 0
}

// Subscribe returns a channel of snapshots and a function that cancels the
// subscription. Snapshots are dropped for subscribers that fall behind.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	if s.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// close ends the session, notifies sinks, and closes every subscriber channel.
func (s *Session) close(now time.Time) (Summary, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Summary{}, false
	}
	s.closed = true
	summary := Summary{
		SessionID: s.id,
		Source:    s.source,
		Text:      s.composer.String(),
		Letters:   s.letters,
		StartedAt: s.startedAt,
		EndedAt:   now,
	}
	s.mu.Unlock()

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subs = nil
	s.subMu.Unlock()

	for _, sink := range s.sinks {
		sink.SessionClosed(summary)
	}
	return summary, true
}
