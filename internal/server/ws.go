package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/session"
)

const (
	// cooldownTick refreshes clients while a cooldown runs down with no frames.
	cooldownTick = 100 * time.Millisecond
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// frameMessage is one client frame. Landmarks are null when no hand is visible.
type frameMessage struct {
	Landmarks []detector.Point3D `json:"landmarks"`
	Timestamp int64              `json:"timestamp"`
}

// hand converts the message to landmarks, or nil for no usable hand.
func (m frameMessage) hand() *detector.HandLandmarks {
	if m.Landmarks == nil {
		return nil
	}
	h, err := detector.NewHandLandmarks(m.Landmarks)
	if err != nil {
		return nil
	}
	return h
}

// at returns the frame time, preferring the client timestamp.
func (m frameMessage) at() time.Time {
	if m.Timestamp > 0 {
		return time.UnixMilli(m.Timestamp)
	}
	return time.Now()
}

// SessionSocket accepts client landmark frames for one session and streams
// its live state back.
type SessionSocket struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewSessionSocket creates a handler for /api/sessions/{id}/ws.
func NewSessionSocket(m *session.Manager, logger *zap.Logger) *SessionSocket {
	return &SessionSocket{sessions: m, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SessionSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id = strings.TrimSuffix(id, "/ws")

	sess, err := h.sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := sess.Subscribe()
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg frameMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				h.logger.Debug("invalid frame message", zap.String("session", id), zap.Error(err))
				continue
			}
			sess.Process(msg.hand(), msg.at())
		}
	}()

	pump(conn, sess, updates, readerDone)
}

// LiveSocket streams the camera pipeline's session state.
type LiveSocket struct {
	pipeline Pipeline
	logger   *zap.Logger
}

// NewLiveSocket creates a handler for /api/live.
func NewLiveSocket(p Pipeline, logger *zap.Logger) *LiveSocket {
	return &LiveSocket{pipeline: p, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := h.pipeline.Session()
	if sess == nil {
		http.Error(w, "Camera pipeline not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := sess.Subscribe()
	defer cancel()

	// Reads only detect the close; clients send nothing here.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pump(conn, sess, updates, readerDone)
}

// pump is the connection's only writer. It forwards session updates and,
// while a cooldown is running, a periodic state refresh.
func pump(conn *websocket.Conn, sess *session.Session, updates <-chan session.Snapshot, readerDone <-chan struct{}) {
	ticker := time.NewTicker(cooldownTick)
	defer ticker.Stop()

	write := func(snap session.Snapshot) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(snap)
	}

	if err := write(sess.State(time.Now())); err != nil {
		return
	}

	for {
		select {
		case <-readerDone:
			return
		case snap, ok := <-updates:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := write(snap); err != nil {
				return
			}
		case <-ticker.C:
			snap := sess.State(time.Now())
			if snap.CooldownRemaining <= 0 {
				continue
			}
			if err := write(snap); err != nil {
				return
			}
		}
	}
}
