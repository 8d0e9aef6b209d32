package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/models"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
)

// ChatroomHandler manages room creation, listing and membership endpoints.
type ChatroomHandler struct {
	roomRepo repositories.ChatroomRepository
	userRepo repositories.UserRepository
	audit    *telemetry.AuditEmitter
}

// NewChatroomHandler constructs a ChatroomHandler.
func NewChatroomHandler(roomRepo repositories.ChatroomRepository, userRepo repositories.UserRepository, audit *telemetry.AuditEmitter) *ChatroomHandler {
	return &ChatroomHandler{roomRepo: roomRepo, userRepo: userRepo, audit: audit}
}

// CreateOneToOne handles POST /chatrooms/one-to-one. An existing room for
// the pair is reused instead of minting a duplicate.
func (h *ChatroomHandler) CreateOneToOne(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		FriendID int `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID, err := h.roomRepo.FindOneToOne(c.Request.Context(), userID, req.FriendID)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"chatroom_id": roomID})
		return
	}
	if !errors.Is(err, repositories.ErrRoomNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chatroom"})
		return
	}

	room, err := h.roomRepo.CreateOneToOne(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chatroom"})
		return
	}

	h.emitAudit(c, "INFO", "One-to-one chatroom created")
	c.JSON(http.StatusCreated, gin.H{"chatroom_id": room.ID})
}

// CreateGroup handles POST /chatrooms/group.
func (h *ChatroomHandler) CreateGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomRepo.CreateGroup(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "Group chatroom created")
	c.JSON(http.StatusCreated, gin.H{"chatroom_id": room.ID})
}

// ListRooms handles GET /chatrooms?name=. One-to-one rooms report the other
// member's nick name instead of the stored placeholder.
func (h *ChatroomHandler) ListRooms(c *gin.Context) {
	userID := c.GetInt("userID")

	rooms, err := h.roomRepo.ListRoomsForUser(c.Request.Context(), userID, c.Query("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chatrooms"})
		return
	}

	summaries := make([]models.RoomSummary, 0, len(rooms))
	otherByIndex := map[int]int{}
	otherIDs := make([]int, 0, len(rooms))
	for i, room := range rooms {
		memberIDs, err := h.roomRepo.ListMemberIDs(c.Request.Context(), room.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chatrooms"})
			return
		}
		summaries = append(summaries, models.RoomSummary{
			Chatroom:  room,
			UserCount: len(memberIDs),
			UserIDs:   memberIDs,
		})
		if room.Kind == models.RoomOneToOne {
			for _, id := range memberIDs {
				if id != userID {
					otherByIndex[i] = id
					otherIDs = append(otherIDs, id)
					break
				}
			}
		}
	}

	users, err := h.userRepo.BulkUsers(c.Request.Context(), otherIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user info"})
		return
	}
	nickByID := map[int]string{}
	for _, u := range users {
		nickByID[u.ID] = u.NickName
	}
	for i, otherID := range otherByIndex {
		if nick, ok := nickByID[otherID]; ok {
			summaries[i].Name = nick
		}
	}

	c.JSON(http.StatusOK, gin.H{"chatrooms": summaries})
}

// GetRoomInfo handles GET /chatrooms/:room_id.
func (h *ChatroomHandler) GetRoomInfo(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chatroom not found"})
		return
	}

	users, err := h.loadMembers(c, roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, models.RoomInfo{Chatroom: room, Users: users})
}

// ListMembers handles GET /chatrooms/:room_id/members.
func (h *ChatroomHandler) ListMembers(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	if _, err := h.roomRepo.GetRoom(c.Request.Context(), roomID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chatroom not found"})
		return
	}

	users, err := h.loadMembers(c, roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Join handles POST /chatrooms/:room_id/join. One-to-one rooms never accept
// additional members.
func (h *ChatroomHandler) Join(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chatroom not found"})
		return
	}
	if room.Kind == models.RoomOneToOne {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot join a one-to-one chatroom"})
		return
	}

	user, err := h.userRepo.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	if err := h.roomRepo.AddMember(c.Request.Context(), roomID, user.ID); err != nil {
		if errors.Is(err, repositories.ErrAlreadyMember) {
			c.JSON(http.StatusConflict, gin.H{"error": "already a member"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join chatroom"})
		return
	}

	h.emitAudit(c, "INFO", "User joined chatroom")
	c.JSON(http.StatusOK, gin.H{"chatroom_id": room.ID})
}

// Quit handles POST /chatrooms/:room_id/quit. Leaving a one-to-one room is
// structurally disallowed; the room persists even at zero members.
func (h *ChatroomHandler) Quit(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	room, err := h.roomRepo.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chatroom not found"})
		return
	}
	if room.Kind == models.RoomOneToOne {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot quit a one-to-one chatroom"})
		return
	}

	if err := h.roomRepo.RemoveMember(c.Request.Context(), roomID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotMember) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not a member"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not quit chatroom"})
		return
	}

	h.emitAudit(c, "INFO", "User quit chatroom")
	c.Status(http.StatusNoContent)
}

// FindOneToOne handles GET /chatrooms/find-one-to-one?user_id1=&user_id2=.
func (h *ChatroomHandler) FindOneToOne(c *gin.Context) {
	userID1, err := strconv.Atoi(c.Query("user_id1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id1"})
		return
	}
	userID2, err := strconv.Atoi(c.Query("user_id2"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id2"})
		return
	}

	roomID, err := h.roomRepo.FindOneToOne(c.Request.Context(), userID1, userID2)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chatroom not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chatroom_id": roomID})
}

func (h *ChatroomHandler) loadMembers(c *gin.Context, roomID int) ([]models.User, error) {
	memberIDs, err := h.roomRepo.ListMemberIDs(c.Request.Context(), roomID)
	if err != nil {
		return nil, err
	}
	return h.userRepo.BulkUsers(c.Request.Context(), memberIDs)
}

func (h *ChatroomHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func parseRoomID(c *gin.Context) (int, bool) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chatroom id"})
		return 0, false
	}
	return roomID, true
}
