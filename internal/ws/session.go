package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	// sendQueueSize bounds the per-session outbound queue. Overflow closes
	// the session so one slow reader never backs up a broadcast.
	sendQueueSize = 64
)

// Session is an ephemeral, connection-scoped subscriber handle. It is never
// persisted; disconnecting destroys it.
type Session struct {
	ID          string
	UserID      int
	ConnectedAt time.Time

	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewSession wraps a websocket connection for the given user.
func NewSession(conn *websocket.Conn, userID int) *Session {
	return &Session{
		ID:          newSessionID(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendQueueSize),
	}
}

// Outbound exposes the delivery queue. The write pump consumes it; tests
// read it directly.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// enqueue offers a payload without blocking. False means the queue is full
// or the session is already closed.
func (s *Session) enqueue(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// writePump flushes queued payloads to the connection and keeps it alive
// with pings. It exits when the queue closes or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
