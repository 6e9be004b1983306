package store

import (
	"errors"
	"testing"
	"time"
)

func TestTranscriptRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Transcripts()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := &Transcript{
		ID:        "tr-1",
		SessionID: "sess-1",
		Text:      "HI YOU",
		Letters:   5,
		StartedAt: started,
		EndedAt:   started.Add(30 * time.Second),
	}
	if err := repo.Create(tr); err != nil {
		t.Fatalf("failed to create transcript: %v", err)
	}
	if tr.Source != "websocket" {
		t.Errorf("expected default source, got %q", tr.Source)
	}

	got, err := repo.GetByID("tr-1")
	if err != nil {
		t.Fatalf("failed to get transcript: %v", err)
	}
	if got.Text != "HI YOU" || got.Letters != 5 || got.SessionID != "sess-1" {
		t.Errorf("unexpected transcript %+v", got)
	}
	if !got.StartedAt.Equal(tr.StartedAt) || !got.EndedAt.Equal(tr.EndedAt) {
		t.Errorf("timestamps not preserved: %v..%v", got.StartedAt, got.EndedAt)
	}
}

func TestTranscriptRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Transcripts().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTranscriptRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	repo := s.Transcripts()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		err := repo.Create(&Transcript{
			ID:        id,
			SessionID: "s-" + id,
			Text:      id,
			EndedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids string
	for _, tr := range all {
		ids += tr.ID
	}
	if ids != "cba" {
		t.Errorf("expected newest first, got %q", ids)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 transcripts, got %d", len(limited))
	}
}

func TestTranscriptRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Transcripts()

	if err := repo.Create(&Transcript{ID: "x", SessionID: "s"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete("x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
