package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/fingerspell/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTranscript(t *testing.T, s *store.Store, id, sessionID, text string, ended time.Time) {
	t.Helper()
	err := s.Transcripts().Create(&store.Transcript{
		ID:        id,
		SessionID: sessionID,
		Text:      text,
		Letters:   len(text),
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
	})
	if err != nil {
		t.Fatalf("failed to create transcript: %v", err)
	}
	for i, r := range text {
		err := s.Emissions().Record(&store.Emission{
			SessionID:  sessionID,
			Letter:     r,
			Confidence: 0.9,
			EmittedAt:  ended.Add(time.Duration(i-len(text)) * time.Second),
		})
		if err != nil {
			t.Fatalf("failed to record emission: %v", err)
		}
	}
}

func TestTranscriptHandler_List(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedTranscript(t, s, "t1", "s1", "HI", base)
	seedTranscript(t, s, "t2", "s2", "BYE", base.Add(time.Hour))

	h := NewTranscriptHandler(s)

	t.Run("newest first", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transcripts", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp listTranscriptsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Transcripts) != 2 || resp.Transcripts[0].ID != "t2" {
			t.Errorf("unexpected transcripts %+v", resp.Transcripts)
		}
	})

	t.Run("limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transcripts?limit=1", nil))

		var resp listTranscriptsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Transcripts) != 1 {
			t.Errorf("expected 1 transcript, got %d", len(resp.Transcripts))
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, q := range []string{"0", "-3", "many"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transcripts?limit="+q, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: expected status %d, got %d", q, http.StatusBadRequest, rec.Code)
			}
		}
	})

	t.Run("empty store returns an empty array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewTranscriptHandler(setupTestStore(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transcripts", nil))
		if body := rec.Body.String(); body != "{\"transcripts\":[]}\n" {
			t.Errorf("unexpected body %q", body)
		}
	})
}

func TestTranscriptHandler_GetAndDelete(t *testing.T) {
	s := setupTestStore(t)
	seedTranscript(t, s, "t1", "s1", "CAB", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	h := NewTranscriptHandler(s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transcripts/t1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var detail struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Emissions []struct {
			Letter string `json:"letter"`
		} `json:"emissions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if detail.Text != "CAB" || len(detail.Emissions) != 3 || detail.Emissions[0].Letter != "C" {
		t.Errorf("unexpected detail %+v", detail)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/transcripts/t1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	emissions, err := s.Emissions().ListBySession("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(emissions) != 0 {
		t.Errorf("expected emissions deleted, got %d", len(emissions))
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/api/transcripts/t1", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected status %d, got %d", method, http.StatusNotFound, rec.Code)
		}
	}
}

func TestTranscriptHandler_MethodNotAllowed(t *testing.T) {
	h := NewTranscriptHandler(setupTestStore(t))
	for _, tt := range []struct{ method, path string }{
		{http.MethodPost, "/api/transcripts"},
		{http.MethodPut, "/api/transcripts/t1"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}

func TestStatsHandler(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedTranscript(t, s, "t1", "s1", "AAB", base)

	rec := httptest.NewRecorder()
	NewStatsHandler(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/letters", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Letters []letterCountResponse `json:"letters"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	counts := map[string]int{}
	for _, c := range resp.Letters {
		counts[c.Letter] = c.Count
	}
	if counts["A"] != 2 || counts["B"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}
