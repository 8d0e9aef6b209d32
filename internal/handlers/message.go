package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/models"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
	"social-chat-service/internal/ws"
)

// MessageHandler manages the message log endpoints and the HTTP send path.
type MessageHandler struct {
	roomRepo    repositories.ChatroomRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(roomRepo repositories.ChatroomRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{roomRepo: roomRepo, messageRepo: messageRepo, userRepo: userRepo, hub: hub, audit: audit}
}

// GetHistory handles GET /chatrooms/:room_id/messages. The log comes back
// in insertion order, enriched with sender usernames.
func (h *MessageHandler) GetHistory(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	member, err := h.roomRepo.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	msgs, err := h.messageRepo.ListRoomMessages(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	senderIDs := make([]int, 0, len(msgs))
	seen := map[int]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	usernameByID := map[int]string{}
	if len(senderIDs) > 0 {
		users, err := h.userRepo.BulkUsers(c.Request.Context(), senderIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
			return
		}
		for _, u := range users {
			usernameByID[u.ID] = u.Username
		}
	}

	type messageResponse struct {
		models.Message
		SenderUsername string `json:"sender_username,omitempty"`
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderUsername: usernameByID[m.SenderID]})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// PostMessage handles POST /chatrooms/:room_id/messages: append to the log
// first, then broadcast to the room's live sessions.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if _, err := h.roomRepo.GetRoom(c.Request.Context(), roomID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chatroom not found"})
		return
	}

	member, err := h.roomRepo.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	var req struct {
		Type    string `json:"type" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgType, valid := models.ParseMessageType(req.Type)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message type"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), roomID, userID, msgType, req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	sender, err := h.userRepo.GetUser(c.Request.Context(), userID)
	if err != nil {
		// Message is already durable; broadcast with what we have.
		log.Printf("load sender %d: %v", userID, err)
	}

	h.hub.Publish(roomID, models.RoomEvent{
		Type:    ws.EventSendMessage,
		UserID:  userID,
		Message: &models.MessageWithSender{Message: msg, Sender: sender},
	})

	h.emitAudit(c, "INFO", "Message sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
