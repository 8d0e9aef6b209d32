package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"social-chat-service/internal/models"
	"social-chat-service/internal/repositories"
	"social-chat-service/internal/telemetry"
)

// FriendshipHandler manages the friend-request workflow and the friendship
// graph endpoints.
type FriendshipHandler struct {
	friendRepo repositories.FriendshipRepository
	userRepo   repositories.UserRepository
	audit      *telemetry.AuditEmitter
}

// NewFriendshipHandler constructs a FriendshipHandler.
func NewFriendshipHandler(friendRepo repositories.FriendshipRepository, userRepo repositories.UserRepository, audit *telemetry.AuditEmitter) *FriendshipHandler {
	return &FriendshipHandler{friendRepo: friendRepo, userRepo: userRepo, audit: audit}
}

// RequestFriend handles POST /friends/requests.
func (h *FriendshipHandler) RequestFriend(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Username string `json:"username" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	friend, err := h.userRepo.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	request, err := h.friendRepo.CreateRequest(c.Request.Context(), userID, friend.ID, req.Reason)
	switch {
	case errors.Is(err, repositories.ErrSelfReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot befriend yourself"})
		return
	case errors.Is(err, repositories.ErrAlreadyFriends):
		c.JSON(http.StatusConflict, gin.H{"error": "already friends"})
		return
	case err != nil:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create friend request"})
		return
	}

	h.emitAudit(c, "INFO", "Friend request sent")
	c.JSON(http.StatusCreated, request)
}

// ListRequests handles GET /friends/requests: every request touching the
// caller, any status, enriched with the counterpart's profile.
func (h *FriendshipHandler) ListRequests(c *gin.Context) {
	userID := c.GetInt("userID")

	outgoing, err := h.friendRepo.ListRequestsFrom(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}
	incoming, err := h.friendRepo.ListRequestsTo(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}

	counterpartIDs := make([]int, 0, len(outgoing)+len(incoming))
	seen := map[int]struct{}{}
	for _, r := range outgoing {
		if _, ok := seen[r.ToUserID]; !ok {
			seen[r.ToUserID] = struct{}{}
			counterpartIDs = append(counterpartIDs, r.ToUserID)
		}
	}
	for _, r := range incoming {
		if _, ok := seen[r.FromUserID]; !ok {
			seen[r.FromUserID] = struct{}{}
			counterpartIDs = append(counterpartIDs, r.FromUserID)
		}
	}

	users, err := h.userRepo.BulkUsers(c.Request.Context(), counterpartIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user info"})
		return
	}
	byID := map[int]models.User{}
	for _, u := range users {
		byID[u.ID] = u
	}

	res := models.RequestList{
		Incoming: make([]models.RequestWithUser, 0, len(incoming)),
		Outgoing: make([]models.RequestWithUser, 0, len(outgoing)),
	}
	for _, r := range incoming {
		res.Incoming = append(res.Incoming, models.RequestWithUser{FriendRequest: r, User: byID[r.FromUserID]})
	}
	for _, r := range outgoing {
		res.Outgoing = append(res.Outgoing, models.RequestWithUser{FriendRequest: r, User: byID[r.ToUserID]})
	}

	c.JSON(http.StatusOK, res)
}

// AcceptRequest handles POST /friends/requests/:user_id/accept. Every
// pending request from that user flips to accepted; the edge is created only
// if missing, so retries are harmless.
func (h *FriendshipHandler) AcceptRequest(c *gin.Context) {
	fromID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")

	if err := h.friendRepo.AcceptPending(c.Request.Context(), fromID, userID); err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept request"})
		return
	}

	exists, err := h.friendRepo.EdgeExists(c.Request.Context(), userID, fromID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept request"})
		return
	}
	if !exists {
		if err := h.friendRepo.CreateEdge(c.Request.Context(), userID, fromID); err != nil {
			h.emitAudit(c, "ERROR", "internal error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept request"})
			return
		}
	}

	h.emitAudit(c, "INFO", "Friend request accepted")
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// RejectRequest handles POST /friends/requests/:user_id/reject. Succeeds
// even when no pending request matches.
func (h *FriendshipHandler) RejectRequest(c *gin.Context) {
	fromID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")

	if err := h.friendRepo.RejectPending(c.Request.Context(), fromID, userID); err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reject request"})
		return
	}

	h.emitAudit(c, "INFO", "Friend request rejected")
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// ListFriends handles GET /friends?name=, filtering on nick name with a
// case-sensitive substring match.
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	userID := c.GetInt("userID")
	nameFilter := c.Query("name")

	ids, err := h.friendRepo.ListFriendIDs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}

	users, err := h.userRepo.BulkUsers(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user info"})
		return
	}

	friends := make([]models.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(u.NickName, nameFilter) {
			friends = append(friends, u)
		}
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// RemoveFriend handles DELETE /friends/:user_id. The edge is removed in
// both orientations.
func (h *FriendshipHandler) RemoveFriend(c *gin.Context) {
	friendID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")

	if err := h.friendRepo.RemoveEdge(c.Request.Context(), userID, friendID); err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove friend"})
		return
	}

	h.emitAudit(c, "INFO", "Friend removed")
	c.Status(http.StatusNoContent)
}

func (h *FriendshipHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
