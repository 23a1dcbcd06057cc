package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Session wraps one live websocket connection with a write mutex, since
// gorilla's Conn forbids concurrent writers sharing one connection.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteRaw sends a pre-encoded frame.
func (s *Session) WriteRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// WriteJSON marshals and sends v as one text frame.
func (s *Session) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.WriteRaw(data)
}

// Hub tracks every connected session so the tick loop's AfterStep hook can
// broadcast state without the simulation package depending on net/http.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint32]*Session
	nextID   uint32
}

// NewHub constructs an empty session registry.
func NewHub() *Hub {
	return &Hub{sessions: make(map[uint32]*Session)}
}

// Register assigns a connection a player id and tracks its session.
func (h *Hub) Register(conn *websocket.Conn) (uint32, *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	session := &Session{conn: conn}
	h.sessions[id] = session
	return id, session
}

// Unregister drops a session from the registry.
func (h *Hub) Unregister(id uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Broadcast fans a payload out to every connected session. A session whose
// write fails is left for its own read loop to notice and unregister.
func (h *Hub) Broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, session := range h.sessions {
		session.WriteJSON(v)
	}
}

// Count reports the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
