package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/gesture"
	"github.com/ayusman/fingerspell/internal/session"
)

func newSessionHandler(t *testing.T) (*SessionHandler, *session.Manager) {
	t.Helper()
	m := session.NewManager(gesture.DefaultParams(), nil)
	return NewSessionHandler(m), m
}

// commit holds a letter in the session until it is emitted.
func commit(t *testing.T, s *session.Session, letter rune, start time.Time) time.Time {
	t.Helper()
	h, ok := detector.LetterLandmarks(letter)
	if !ok {
		t.Fatalf("no fixture for %c", letter)
	}
	now := start
	for i := 0; i < 60; i++ {
		snap := s.Process(&h, now)
		now = now.Add(33 * time.Millisecond)
		if snap.Emitted != "" {
			return now
		}
	}
	t.Fatalf("%c never committed", letter)
	return now
}

func TestSessionHandler_Create(t *testing.T) {
	h, m := newSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == "" || resp.Source != SourceWebSocket {
		t.Errorf("unexpected response %+v", resp)
	}
	if _, err := m.Get(resp.ID); err != nil {
		t.Errorf("session %s not registered: %v", resp.ID, err)
	}
}

func TestSessionHandler_ListAndGet(t *testing.T) {
	h, m := newSessionHandler(t)
	s := m.Create(SourceWebSocket)
	commit(t, s, 'A', time.Now())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	var list listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].ID != s.ID() {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+s.ID(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.State.Text != "A" {
		t.Errorf("expected text A, got %q", got.State.Text)
	}
}

func TestSessionHandler_Edit(t *testing.T) {
	h, m := newSessionHandler(t)
	s := m.Create(SourceWebSocket)
	now := commit(t, s, 'B', time.Now())
	commit(t, s, 'A', now.Add(2*time.Second))

	tests := []struct {
		body string
		code int
		text string
	}{
		{`{"op":"space"}`, http.StatusOK, "BA "},
		{`{"op":"delete"}`, http.StatusOK, "BA"},
		{`{"op":"delete"}`, http.StatusOK, "B"},
		{`{"op":"shout"}`, http.StatusBadRequest, "B"},
		{`not json`, http.StatusBadRequest, "B"},
		{`{"op":"clear"}`, http.StatusOK, ""},
		{`{"op":"delete"}`, http.StatusOK, ""},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID()+"/text", bytes.NewBufferString(tt.body))
		h.ServeHTTP(rec, req)

		if rec.Code != tt.code {
			t.Errorf("%s: expected status %d, got %d", tt.body, tt.code, rec.Code)
		}
		if s.Text() != tt.text {
			t.Errorf("%s: expected text %q, got %q", tt.body, tt.text, s.Text())
		}
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	h, m := newSessionHandler(t)
	s := m.Create(SourceWebSocket)
	commit(t, s, 'Y', time.Now())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+s.ID(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var summary summaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.Text != "Y" || summary.Letters != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if m.Len() != 0 {
		t.Errorf("expected session removed, %d left", m.Len())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+s.ID(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionHandler_Errors(t *testing.T) {
	h, m := newSessionHandler(t)
	s := m.Create(SourceWebSocket)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/missing", "", http.StatusNotFound},
		{"edit unknown session", http.MethodPost, "/api/sessions/missing/text", `{"op":"space"}`, http.StatusNotFound},
		{"put collection", http.MethodPut, "/api/sessions", "", http.StatusMethodNotAllowed},
		{"patch session", http.MethodPatch, "/api/sessions/" + s.ID(), "", http.StatusMethodNotAllowed},
		{"get text", http.MethodGet, "/api/sessions/" + s.ID() + "/text", "", http.StatusMethodNotAllowed},
		{"unknown subresource", http.MethodGet, "/api/sessions/" + s.ID() + "/letters", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body)))
			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
		})
	}
}
