package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-chat-service/internal/models"
	"social-chat-service/internal/observability"
	"social-chat-service/internal/repositories"
)

// SessionHandler upgrades realtime connections and drives their event loop.
type SessionHandler struct {
	hub         *Hub
	roomRepo    repositories.ChatroomRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(hub *Hub, roomRepo repositories.ChatroomRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository) *SessionHandler {
	return &SessionHandler{hub: hub, roomRepo: roomRepo, messageRepo: messageRepo, userRepo: userRepo}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientFrame is the inbound realtime protocol.
type clientFrame struct {
	Event      string `json:"event"`
	ChatroomID int    `json:"chatroomId"`
	Message    *struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"message,omitempty"`
}

// Handle upgrades the connection, registers the session and starts its
// pumps. Identity is established by the middleware before the upgrade.
func (h *SessionHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetInt("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	s := NewSession(conn, userID)
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	deviceID := observability.DeviceIDFromRequest(c.Request)
	ip := observability.IPFromRequest(c.Request)

	h.hub.Register(s)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   sessionEventPayload(s, "ws_connect", "", deviceID, ip),
	}, observability.BuildHeaders(requestID, traceID))

	go s.writePump()
	go h.readPump(context.Background(), s, requestID, traceID, deviceID, ip)
}

// readPump consumes inbound frames until the connection drops, then cleans
// up the session.
func (h *SessionHandler) readPump(ctx context.Context, s *Session, requestID, traceID, deviceID, ip string) {
	var closeReason string
	defer func() {
		h.hub.Unregister(s)
		s.conn.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload:   sessionEventPayload(s, "ws_disconnect", closeReason, deviceID, ip),
		}, observability.BuildHeaders(requestID, traceID))
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}
		h.handleFrame(ctx, s, payload)
	}
}

func (h *SessionHandler) handleFrame(ctx context.Context, s *Session, payload []byte) {
	var frame clientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Printf("ws: malformed frame from user %d: %v", s.UserID, err)
		return
	}

	switch frame.Event {
	case EventJoinRoom:
		h.joinRoom(ctx, s, frame.ChatroomID)
	case EventSendMessage:
		h.sendMessage(ctx, s, frame)
	}
}

// joinRoom subscribes the session after a membership check. The membership
// gate lives here so the message path can stay a pure append.
func (h *SessionHandler) joinRoom(ctx context.Context, s *Session, roomID int) {
	member, err := h.roomRepo.IsMember(ctx, roomID, s.UserID)
	if err != nil {
		log.Printf("ws: membership check failed for user %d room %d: %v", s.UserID, roomID, err)
		return
	}
	if !member {
		log.Printf("ws: user %d is not a member of room %d", s.UserID, roomID)
		return
	}
	h.hub.Subscribe(s, roomID)
}

// sendMessage persists first and broadcasts second; the broadcast carries
// the sender's profile fetched fresh at send time.
func (h *SessionHandler) sendMessage(ctx context.Context, s *Session, frame clientFrame) {
	if frame.Message == nil {
		return
	}
	msgType, ok := models.ParseMessageType(frame.Message.Type)
	if !ok {
		log.Printf("ws: unknown message type %q from user %d", frame.Message.Type, s.UserID)
		return
	}

	msg, err := h.messageRepo.CreateMessage(ctx, frame.ChatroomID, s.UserID, msgType, frame.Message.Content)
	if err != nil {
		log.Printf("ws: store message for room %d: %v", frame.ChatroomID, err)
		return
	}

	sender, err := h.userRepo.GetUser(ctx, s.UserID)
	if err != nil {
		log.Printf("ws: load sender %d: %v", s.UserID, err)
	}

	h.hub.Publish(frame.ChatroomID, models.RoomEvent{
		Type:    EventSendMessage,
		UserID:  s.UserID,
		Message: &models.MessageWithSender{Message: msg, Sender: sender},
	})
}

func sessionEventPayload(s *Session, event, reason, deviceID, ip string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"session_id":  s.ID,
			"duration_ms": time.Since(s.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   s.UserID,
			"device_id": deviceID,
			"ip":        ip,
		},
	}
}
