package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/fingerspell/internal/gesture"
)

// ErrNotFound is returned when a session ID is unknown.
var ErrNotFound = errors.New("session not found")

// Manager creates and tracks sessions.
type Manager struct {
	params gesture.Params
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	sinks    []Sink
}

// NewManager creates a Manager whose sessions use params.
func NewManager(params gesture.Params, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		params:   params,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// AddSink registers a sink for sessions created afterwards.
func (m *Manager) AddSink(sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Create starts a new session.
func (m *Manager) Create(source string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	sinks := append([]Sink(nil), m.sinks...)
	s := newSession(id, source, m.params, sinks, m.logger, func() time.Time { return m.now() })
	m.sessions[id] = s

	m.logger.Info("session created", zap.String("session", id), zap.String("source", source))
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all open sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].startedAt.Before(list[j].startedAt)
	})
	return list
}

// Close ends a session and removes it from the manager.
func (m *Manager) Close(id string) (Summary, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return Summary{}, ErrNotFound
	}

	summary, _ := s.close(m.now())
	m.logger.Info("session closed",
		zap.String("session", id),
		zap.Int("letters", summary.Letters),
		zap.Duration("duration", summary.EndedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

// CloseAll ends every open session.
func (m *Manager) CloseAll() {
	for _, s := range m.List() {
		m.Close(s.ID()) //nolint:errcheck
	}
}

// CloseIdle closes every session from source that has had no frame, edit, or
// subscriber for at least maxIdle, and returns their summaries.
func (m *Manager) CloseIdle(source string, maxIdle time.Duration) []Summary {
	now := m.now()

	var idle []string
	for _, s := range m.List() {
		if s.source == source && s.idleFor(now) >= maxIdle {
			idle = append(idle, s.id)
		}
	}

	var closed []Summary
	for _, id := range idle {
		summary, err := m.Close(id)
		if err != nil {
			continue
		}
		m.logger.Info("idle session expired", zap.String("session", id), zap.Duration("max_idle", maxIdle))
		closed = append(closed, summary)
	}
	return closed
}

// ExpireIdle runs CloseIdle for source until ctx is done, checking every
// quarter of maxIdle.
func (m *Manager) ExpireIdle(ctx context.Context, source string, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CloseIdle(source, maxIdle)
		}
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
