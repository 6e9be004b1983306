package app

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/fingerspell/internal/plugin"
	"github.com/ayusman/fingerspell/internal/session"
	"github.com/ayusman/fingerspell/internal/store"
	"github.com/ayusman/fingerspell/internal/tray"
)

// StoreSink records every committed letter and saves a transcript when a
// session with text closes.
type StoreSink struct {
	store  *store.Store
	logger *zap.Logger
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(s *store.Store, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{store: s, logger: logger}
}

func (s *StoreSink) LetterCommitted(e session.Emission) {
	err := s.store.Emissions().Record(&store.Emission{
		SessionID:  e.SessionID,
		Letter:     e.Letter,
		Confidence: e.Confidence,
		EmittedAt:  e.At,
	})
	if err != nil {
		s.logger.Error("record emission", zap.String("session", e.SessionID), zap.Error(err))
	}
}

func (s *StoreSink) SessionClosed(sum session.Summary) {
	if sum.Text == "" {
		s.logger.Debug("not saving empty transcript", zap.String("session", sum.SessionID))
		return
	}

	t := &store.Transcript{
		ID:        uuid.New().String(),
		SessionID: sum.SessionID,
		Source:    sum.Source,
		Text:      sum.Text,
		Letters:   sum.Letters,
		StartedAt: sum.StartedAt,
		EndedAt:   sum.EndedAt,
	}
	if err := s.store.Transcripts().Create(t); err != nil {
		s.logger.Error("save transcript", zap.String("session", sum.SessionID), zap.Error(err))
		return
	}
	s.logger.Info("transcript saved", zap.String("id", t.ID), zap.String("session", sum.SessionID))
}

// PluginSink forwards committed letters to the plugin dispatcher.
type PluginSink struct {
	dispatcher *plugin.Dispatcher
}

// NewPluginSink creates a PluginSink.
func NewPluginSink(d *plugin.Dispatcher) *PluginSink {
	return &PluginSink{dispatcher: d}
}

func (p *PluginSink) LetterCommitted(e session.Emission) {
	p.dispatcher.Send(plugin.Letter{Letter: e.Letter, Session: e.SessionID})
}

func (p *PluginSink) SessionClosed(session.Summary) {}

// TraySink mirrors committed letters into the tray menu.
type TraySink struct {
	tray *tray.Tray
}

// NewTraySink creates a TraySink.
func NewTraySink(t *tray.Tray) *TraySink {
	return &TraySink{tray: t}
}

func (t *TraySink) LetterCommitted(e session.Emission) {
	t.tray.SetLastLetter(e.Letter)
	t.tray.SetText(e.Text)
}

func (t *TraySink) SessionClosed(session.Summary) {}
