package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestManager_CreateGetList(t *testing.T) {
	m := newTestManager()

	a := m.Create("websocket")
	b := m.Create("camera")

	if _, err := uuid.Parse(a.ID()); err != nil {
		t.Errorf("expected a UUID session id, got %q", a.ID())
	}
	if a.ID() == b.ID() {
		t.Fatal("expected distinct session ids")
	}

	got, err := m.Get(b.ID())
	if err != nil || got != b {
		t.Errorf("Get returned %v, %v", got, err)
	}
	if m.Len() != 2 || len(m.List()) != 2 {
		t.Errorf("expected 2 sessions, got %d", m.Len())
	}

	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_CloseNotifiesSinks(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink)
	s := m.Create("websocket")
	ch, _ := s.Subscribe()

	spell(t, s, "AB", t0)
	m.now = func() time.Time { return t0.Add(time.Minute) }

	summary, err := m.Close(s.ID())
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if summary.Text != "AB" || summary.Letters != 2 || summary.Source != "websocket" {
		t.Errorf("unexpected summary %+v", summary)
	}
	if !summary.EndedAt.Equal(t0.Add(time.Minute)) || !summary.StartedAt.Equal(t0) {
		t.Errorf("unexpected summary times %v..%v", summary.StartedAt, summary.EndedAt)
	}
	if len(sink.summaries) != 1 {
		t.Errorf("expected 1 closed notification, got %d", len(sink.summaries))
	}

	for range ch {
	}

	if _, err := m.Close(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second close, got %v", err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Error("closed session should be gone")
	}
}

func TestManager_SinkAddedLaterOnlySeesNewSessions(t *testing.T) {
	m := newTestManager()
	early := m.Create("a")

	sink := &recordingSink{}
	m.AddSink(sink)
	late := m.Create("b")

	spell(t, early, "D", t0)
	spell(t, late, "D", t0)

	if len(sink.emissions) != 1 || sink.emissions[0].SessionID != late.ID() {
		t.Errorf("expected only the later session's emission, got %+v", sink.emissions)
	}
}

func TestManager_CloseAll(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink)
	m.Create("a")
	m.Create("b")

	m.CloseAll()

	if m.Len() != 0 {
		t.Errorf("expected no sessions, got %d", m.Len())
	}
	if len(sink.summaries) != 2 {
		t.Errorf("expected 2 summaries, got %d", len(sink.summaries))
	}
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		in      string
		want    Op
		wantErr bool
	}{
		{"space", OpSpace, false},
		{"delete", OpDelete, false},
		{"clear", OpClear, false},
		{"", "", true},
		{"SPACE", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOp(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseOp(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestManager_CloseIdle(t *testing.T) {
	sink := &recordingSink{}
	m := newTestManager(sink)
	clock := t0
	m.now = func() time.Time { return clock }

	stale := m.Create("websocket")
	watched := m.Create("websocket")
	_, cancel := watched.Subscribe()
	camera := m.Create("camera")

	clock = t0.Add(10 * time.Minute)
	busy := m.Create("websocket")
	edited := m.Create("websocket")

	clock = t0.Add(20 * time.Minute)
	busy.Process(nil, clock)
	if _, err := edited.Edit(OpSpace, clock); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	clock = t0.Add(30 * time.Minute)
	closed := m.CloseIdle("websocket", 15*time.Minute)

	if len(closed) != 1 || closed[0].SessionID != stale.ID() {
		t.Fatalf("expected only the stale session to close, got %+v", closed)
	}
	if _, err := m.Get(stale.ID()); !errors.Is(err, ErrNotFound) {
		t.Error("stale session should be gone")
	}
	for _, s := range []*Session{watched, camera, busy, edited} {
		if _, err := m.Get(s.ID()); err != nil {
			t.Errorf("session %s (%s) should still be open", s.ID(), s.Source())
		}
	}
	if len(sink.summaries) != 1 {
		t.Errorf("expected 1 closed notification, got %d", len(sink.summaries))
	}

	// Once its last subscriber leaves, the watched session ages from its creation.
	cancel()
	closed = m.CloseIdle("websocket", 15*time.Minute)
	if len(closed) != 1 || closed[0].SessionID != watched.ID() {
		t.Errorf("expected the unwatched session to close, got %+v", closed)
	}
}

func TestManager_ExpireIdleStopsWithContext(t *testing.T) {
	m := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.ExpireIdle(ctx, "websocket", time.Minute)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ExpireIdle did not return after cancel")
	}
}
