package ws

import (
	"encoding/json"
	"log"
	"sync"

	"social-chat-service/internal/models"
	"social-chat-service/internal/observability"
)

// Event types broadcast to room subscribers.
const (
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
)

// Hub owns the process-wide room to live-session registry. It is created at
// startup and drained via Shutdown at exit.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[int]map[*Session]struct{}
	sessions map[*Session]map[int]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int]map[*Session]struct{}),
		sessions: make(map[*Session]map[int]struct{}),
	}
}

// Register adds a connected session with an empty subscription set.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = make(map[int]struct{})
}

// Subscribe adds the session to a room and announces the join to every
// current subscriber of that room, the new one included.
func (h *Hub) Subscribe(s *Session, roomID int) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	h.sessions[s][roomID] = struct{}{}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Session]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
	h.mu.Unlock()

	h.Publish(roomID, models.RoomEvent{Type: EventJoinRoom, UserID: s.UserID})
}

// Publish delivers an event to every session subscribed to the room at the
// time of the call. Delivery is fire-and-forget: a session whose queue is
// full gets closed and dropped rather than allowed to stall the rest.
func (h *Hub) Publish(roomID int, event models.RoomEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal event: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if s.enqueue(payload) {
			observability.IncFanoutDelivered(event.Type)
			continue
		}
		log.Printf("hub: session %s queue overflow, dropping connection", s.ID)
		observability.IncFanoutDropped()
		h.Unregister(s)
	}
}

// Unregister removes the session from every room it subscribed to and
// closes its queue. No leave notification is broadcast.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	subscribed, ok := h.sessions[s]
	if ok {
		delete(h.sessions, s)
		for roomID := range subscribed {
			delete(h.rooms[roomID], s)
			if len(h.rooms[roomID]) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		s.close()
	}
}

// RoomSessions reports how many sessions are subscribed to a room.
func (h *Hub) RoomSessions(roomID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Shutdown drains every live session.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.rooms = make(map[int]map[*Session]struct{})
	h.sessions = make(map[*Session]map[int]struct{})
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
