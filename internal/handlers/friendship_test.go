package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-chat-service/internal/mocks"
	"social-chat-service/internal/models"
	"social-chat-service/internal/repositories"
)

func setupFriendshipRouter(handler *FriendshipHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/friends/requests", handler.RequestFriend)
	r.GET("/friends/requests", handler.ListRequests)
	r.POST("/friends/requests/:user_id/accept", handler.AcceptRequest)
	r.POST("/friends/requests/:user_id/reject", handler.RejectRequest)
	r.GET("/friends", handler.ListFriends)
	r.DELETE("/friends/:user_id", handler.RemoveFriend)
	return r
}

func TestRequestFriendSuccess(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, userRepo, nil)
	router := setupFriendshipRouter(handler)

	userRepo.On("GetUserByUsername", mock.Anything, "bob").Return(models.User{ID: 2, Username: "bob"}, nil).Once()
	friendRepo.On("CreateRequest", mock.Anything, 1, 2, "hello").Return(models.FriendRequest{ID: 5, FromUserID: 1, ToUserID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"username":"bob","reason":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	userRepo.AssertExpectations(t)
	friendRepo.AssertExpectations(t)
}

func TestRequestFriendUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendshipHandler(new(mocks.FriendshipRepositoryMock), userRepo, nil)
	router := setupFriendshipRouter(handler)

	userRepo.On("GetUserByUsername", mock.Anything, "ghost").Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"username":"ghost"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestRequestFriendSelfReference(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, userRepo, nil)
	router := setupFriendshipRouter(handler)

	userRepo.On("GetUserByUsername", mock.Anything, "me").Return(models.User{ID: 1, Username: "me"}, nil).Once()
	friendRepo.On("CreateRequest", mock.Anything, 1, 1, "").Return(models.FriendRequest{}, repositories.ErrSelfReference).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"username":"me"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	friendRepo.AssertExpectations(t)
}

func TestRequestFriendAlreadyFriends(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, userRepo, nil)
	router := setupFriendshipRouter(handler)

	userRepo.On("GetUserByUsername", mock.Anything, "bob").Return(models.User{ID: 2}, nil).Once()
	friendRepo.On("CreateRequest", mock.Anything, 1, 2, "").Return(models.FriendRequest{}, repositories.ErrAlreadyFriends).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"username":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	friendRepo.AssertExpectations(t)
}

func TestAcceptRequestCreatesEdge(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendshipRouter(handler)

	friendRepo.On("AcceptPending", mock.Anything, 2, 1).Return(nil).Once()
	friendRepo.On("EdgeExists", mock.Anything, 1, 2).Return(false, nil).Once()
	friendRepo.On("CreateEdge", mock.Anything, 1, 2).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/2/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friendRepo.AssertExpectations(t)
}

func TestAcceptRequestExistingEdgeSkipsCreate(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendshipRouter(handler)

	friendRepo.On("AcceptPending", mock.Anything, 2, 1).Return(nil).Once()
	friendRepo.On("EdgeExists", mock.Anything, 1, 2).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/2/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friendRepo.AssertNotCalled(t, "CreateEdge", mock.Anything, mock.Anything, mock.Anything)
	friendRepo.AssertExpectations(t)
}

func TestAcceptRequestInvalidID(t *testing.T) {
	handler := NewFriendshipHandler(new(mocks.FriendshipRepositoryMock), new(mocks.UserRepositoryMock), nil)
	router := setupFriendshipRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/abc/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectRequestSuccess(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendshipRouter(handler)

	friendRepo.On("RejectPending", mock.Anything, 2, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/2/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "rejected", resp["status"])
	friendRepo.AssertExpectations(t)
}

func TestListRequestsEnrichesCounterparts(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, userRepo, nil)
	router := setupFriendshipRouter(handler)

	friendRepo.On("ListRequestsFrom", mock.Anything, 1).Return([]models.FriendRequest{{ID: 1, FromUserID: 1, ToUserID: 2}}, nil).Once()
	friendRepo.On("ListRequestsTo", mock.Anything, 1).Return([]models.FriendRequest{{ID: 2, FromUserID: 3, ToUserID: 1}}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []int{2, 3}).Return([]models.User{{ID: 2, Username: "bob"}, {ID: 3, Username: "carol"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends/requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.RequestList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Incoming, 1)
	require.Len(t, resp.Outgoing, 1)
	assert.Equal(t, "carol", resp.Incoming[0].User.Username)
	assert.Equal(t, "bob", resp.Outgoing[0].User.Username)
	friendRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestListFriendsFiltersByNickName(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, userRepo, nil)
	router := setupFriendshipRouter(handler)

	friendRepo.On("ListFriendIDs", mock.Anything, 1).Return([]int{2, 3}, nil).Once()
	userRepo.On("BulkUsers", mock.Anything, []int{2, 3}).Return([]models.User{
		{ID: 2, NickName: "alpha"},
		{ID: 3, NickName: "beta"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends?name=alp", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Friends []models.User `json:"friends"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Friends, 1)
	assert.Equal(t, 2, resp.Friends[0].ID)
	friendRepo.AssertExpectations(t)
}

func TestRemoveFriendSuccess(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendshipRouter(handler)

	friendRepo.On("RemoveEdge", mock.Anything, 1, 2).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	friendRepo.AssertExpectations(t)
}

func TestRemoveFriendRepoError(t *testing.T) {
	friendRepo := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendshipHandler(friendRepo, new(mocks.UserRepositoryMock), nil)
	router := setupFriendshipRouter(handler)

	friendRepo.On("RemoveEdge", mock.Anything, 1, 2).Return(assert.AnError).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	friendRepo.AssertExpectations(t)
}
