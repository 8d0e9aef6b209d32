package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-chat-service/internal/models"
	"social-chat-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type FriendshipRepositoryMock struct {
	mock.Mock
}

func (m *FriendshipRepositoryMock) CreateRequest(ctx context.Context, fromID, toID int, reason string) (models.FriendRequest, error) {
	args := m.Called(ctx, fromID, toID, reason)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListRequestsFrom(ctx context.Context, userID int) ([]models.FriendRequest, error) {
	args := m.Called(ctx, userID)
	var reqs []models.FriendRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FriendRequest)
	}
	return reqs, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListRequestsTo(ctx context.Context, userID int) ([]models.FriendRequest, error) {
	args := m.Called(ctx, userID)
	var reqs []models.FriendRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FriendRequest)
	}
	return reqs, args.Error(1)
}

func (m *FriendshipRepositoryMock) AcceptPending(ctx context.Context, fromID, toID int) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) RejectPending(ctx context.Context, fromID, toID int) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) EdgeExists(ctx context.Context, userID, friendID int) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendshipRepositoryMock) CreateEdge(ctx context.Context, userID, friendID int) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) ListFriendIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *FriendshipRepositoryMock) RemoveEdge(ctx context.Context, userID, friendID int) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

type ChatroomRepositoryMock struct {
	mock.Mock
}

func (m *ChatroomRepositoryMock) CreateOneToOne(ctx context.Context, userID, friendID int) (models.Chatroom, error) {
	args := m.Called(ctx, userID, friendID)
	var room models.Chatroom
	if val := args.Get(0); val != nil {
		room = val.(models.Chatroom)
	}
	return room, args.Error(1)
}

func (m *ChatroomRepositoryMock) CreateGroup(ctx context.Context, userID int, name string) (models.Chatroom, error) {
	args := m.Called(ctx, userID, name)
	var room models.Chatroom
	if val := args.Get(0); val != nil {
		room = val.(models.Chatroom)
	}
	return room, args.Error(1)
}

func (m *ChatroomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.Chatroom, error) {
	args := m.Called(ctx, roomID)
	var room models.Chatroom
	if val := args.Get(0); val != nil {
		room = val.(models.Chatroom)
	}
	return room, args.Error(1)
}

func (m *ChatroomRepositoryMock) ListRoomsForUser(ctx context.Context, userID int, nameFilter string) ([]models.Chatroom, error) {
	args := m.Called(ctx, userID, nameFilter)
	var rooms []models.Chatroom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Chatroom)
	}
	return rooms, args.Error(1)
}

func (m *ChatroomRepositoryMock) ListMemberIDs(ctx context.Context, roomID int) ([]int, error) {
	args := m.Called(ctx, roomID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ChatroomRepositoryMock) IsMember(ctx context.Context, roomID, userID int) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatroomRepositoryMock) AddMember(ctx context.Context, roomID, userID int) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *ChatroomRepositoryMock) RemoveMember(ctx context.Context, roomID, userID int) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *ChatroomRepositoryMock) FindOneToOne(ctx context.Context, userID1, userID2 int) (int, error) {
	args := m.Called(ctx, userID1, userID2)
	return args.Int(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, senderID int, msgType models.MessageType, content string) (models.Message, error) {
	args := m.Called(ctx, roomID, senderID, msgType, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.FriendshipRepository = (*FriendshipRepositoryMock)(nil)
var _ repositories.ChatroomRepository = (*ChatroomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
