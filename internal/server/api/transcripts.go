package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/fingerspell/internal/store"
)

const defaultTranscriptLimit = 50

// TranscriptHandler handles HTTP requests for saved transcripts.
type TranscriptHandler struct {
	store *store.Store
}

// NewTranscriptHandler creates a new TranscriptHandler with the given store.
func NewTranscriptHandler(s *store.Store) *TranscriptHandler {
	return &TranscriptHandler{store: s}
}

// ServeHTTP routes GET /api/transcripts and GET, DELETE /api/transcripts/{id}.
func (h *TranscriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/transcripts"), "/")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type transcriptResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	Text      string `json:"text"`
	Letters   int    `json:"letters"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
}

type emissionResponse struct {
	Letter     string  `json:"letter"`
	Confidence float64 `json:"confidence"`
	EmittedAt  string  `json:"emitted_at"`
}

type transcriptDetailResponse struct {
	transcriptResponse
	Emissions []emissionResponse `json:"emissions"`
}

type listTranscriptsResponse struct {
	Transcripts []transcriptResponse `json:"transcripts"`
}

func toTranscriptResponse(t *store.Transcript) transcriptResponse {
	return transcriptResponse{
		ID:        t.ID,
		SessionID: t.SessionID,
		Source:    t.Source,
		Text:      t.Text,
		Letters:   t.Letters,
		StartedAt: formatTime(t.StartedAt),
		EndedAt:   formatTime(t.EndedAt),
	}
}

// list handles GET /api/transcripts?limit=N, newest first.
func (h *TranscriptHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultTranscriptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	transcripts, err := h.store.Transcripts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transcripts")
		return
	}

	response := listTranscriptsResponse{
		Transcripts: make([]transcriptResponse, 0, len(transcripts)),
	}
	for _, t := range transcripts {
		response.Transcripts = append(response.Transcripts, toTranscriptResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/transcripts/{id}, including the letters as committed.
func (h *TranscriptHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	t, err := h.store.Transcripts().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transcript not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get transcript")
		return
	}

	emissions, err := h.store.Emissions().ListBySession(t.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load emissions")
		return
	}

	response := transcriptDetailResponse{
		transcriptResponse: toTranscriptResponse(t),
		Emissions:          make([]emissionResponse, 0, len(emissions)),
	}
	for _, e := range emissions {
		response.Emissions = append(response.Emissions, emissionResponse{
			Letter:     string(e.Letter),
			Confidence: e.Confidence,
			EmittedAt:  formatTime(e.EmittedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/transcripts/{id} and the session's emissions.
func (h *TranscriptHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	t, err := h.store.Transcripts().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transcript not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get transcript")
		return
	}

	if err := h.store.Transcripts().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete transcript")
		return
	}
	if _, err := h.store.Emissions().DeleteBySession(t.SessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete emissions")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StatsHandler serves GET /api/stats/letters.
type StatsHandler struct {
	store *store.Store
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(s *store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

type letterCountResponse struct {
	Letter string `json:"letter"`
	Count  int    `json:"count"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := h.store.Emissions().CountByLetter()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count letters")
		return
	}

	response := make([]letterCountResponse, 0, len(counts))
	for _, c := range counts {
		response = append(response, letterCountResponse{Letter: string(c.Letter), Count: c.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{"letters": response})
}
