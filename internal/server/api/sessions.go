package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/fingerspell/internal/session"
)

// SourceWebSocket is the session source for browser clients streaming landmarks.
const SourceWebSocket = "websocket"

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	sessions *session.Manager
	now      func() time.Time
}

// NewSessionHandler creates a new SessionHandler over the given manager.
func NewSessionHandler(m *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: m, now: time.Now}
}

// ServeHTTP routes:
//
//	GET, POST    /api/sessions
//	GET, DELETE  /api/sessions/{id}
//	POST         /api/sessions/{id}/text
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case sub == "text" && r.Method == http.MethodPost:
		h.edit(w, r, id)
	case sub == "" || sub == "text":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

type sessionResponse struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	StartedAt string           `json:"started_at"`
	State     session.Snapshot `json:"state"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type summaryResponse struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Text      string `json:"text"`
	Letters   int    `json:"letters"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
}

type editRequest struct {
	Op string `json:"op"`
}

func (h *SessionHandler) toResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID(),
		Source:    s.Source(),
		StartedAt: formatTime(s.StartedAt()),
		State:     s.State(h.now()),
	}
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	response := listSessionsResponse{Sessions: []sessionResponse{}}
	for _, s := range h.sessions.List() {
		response.Sessions = append(response.Sessions, h.toResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions and starts a session for a WebSocket client.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create(SourceWebSocket)
	writeJSON(w, http.StatusCreated, h.toResponse(s))
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.sessions.Get(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(s))
}

// delete handles DELETE /api/sessions/{id}. Closing a session saves its transcript.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	summary, err := h.sessions.Close(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		ID:        summary.SessionID,
		Source:    summary.Source,
		Text:      summary.Text,
		Letters:   summary.Letters,
		StartedAt: formatTime(summary.StartedAt),
		EndedAt:   formatTime(summary.EndedAt),
	})
}

// edit handles POST /api/sessions/{id}/text.
func (h *SessionHandler) edit(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.sessions.Get(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	op, err := session.ParseOp(req.Op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "op must be one of space, delete, clear")
		return
	}

	snap, err := s.Edit(op, h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to edit text")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to load session")
}
