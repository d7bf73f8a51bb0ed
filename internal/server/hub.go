package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fakeyudi/idlesnap/internal/diff"
	"github.com/fakeyudi/idlesnap/internal/history"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// sendBuffer is how many events a slow subscriber may lag behind before
// events to it are dropped.
const sendBuffer = 16

// Event is one message pushed to websocket subscribers.
type Event struct {
	Type      string        `json:"type"` // "snapshot" | "changes"
	ID        string        `json:"id,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
	Full      bool          `json:"full,omitempty"`
	Character string        `json:"character,omitempty"`
	Key       string        `json:"key,omitempty"`
	Header    string        `json:"header,omitempty"`
	Changes   []diff.Change `json:"changes,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans export notifications out to websocket subscribers. It implements
// export.Notifier and never blocks the export cycle.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	logger *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[*subscriber]struct{}), logger: logger}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe(conn *websocket.Conn) *subscriber {
	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("encoding event", "type", ev.Type, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.send <- data:
		default:
			h.logger.Debug("dropping event for slow subscriber", "type", ev.Type)
		}
	}
}

// SnapshotReady announces a finished export.
func (h *Hub) SnapshotReady(doc *snapshot.Document) {
	h.broadcast(Event{
		Type:      "snapshot",
		ID:        doc.Meta.ID,
		Timestamp: doc.Meta.Timestamp,
		Full:      doc.Meta.Full,
		Character: doc.Meta.Character,
	})
}

// DiffReady pushes a new changelog.
func (h *Hub) DiffReady(key string, c history.Changelog) {
	h.broadcast(Event{Type: "changes", Key: key, Header: c.Header, Changes: c.Changes})
}

// writePump drains s.send into the connection until the subscriber is
// removed or a write fails.
func (h *Hub) writePump(s *subscriber) {
	for data := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.unsubscribe(s)
			s.conn.Close()
			return
		}
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.WriteMessage(websocket.CloseMessage, message)
	s.conn.Close()
}
