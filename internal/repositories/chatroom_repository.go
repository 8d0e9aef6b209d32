package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-chat-service/internal/models"
)

var (
	ErrRoomNotFound  = errors.New("chatroom not found")
	ErrAlreadyMember = errors.New("already a member")
	ErrNotMember     = errors.New("not a member")
)

const roomColumns = `id, kind, name, created_at`

// ChatroomRepository abstracts chatroom and membership persistence.
type ChatroomRepository interface {
	CreateOneToOne(ctx context.Context, userID, friendID int) (models.Chatroom, error)
	CreateGroup(ctx context.Context, userID int, name string) (models.Chatroom, error)
	GetRoom(ctx context.Context, roomID int) (models.Chatroom, error)
	ListRoomsForUser(ctx context.Context, userID int, nameFilter string) ([]models.Chatroom, error)
	ListMemberIDs(ctx context.Context, roomID int) ([]int, error)
	IsMember(ctx context.Context, roomID, userID int) (bool, error)
	AddMember(ctx context.Context, roomID, userID int) error
	RemoveMember(ctx context.Context, roomID, userID int) error
	FindOneToOne(ctx context.Context, userID1, userID2 int) (int, error)
}

// ChatroomRepo is a sqlx implementation of ChatroomRepository.
type ChatroomRepo struct {
	db *sqlx.DB
}

// NewChatroomRepo constructs a ChatroomRepo.
func NewChatroomRepo(db *sqlx.DB) *ChatroomRepo {
	return &ChatroomRepo{db: db}
}

// CreateOneToOne creates a two-party room and both memberships atomically.
// The stored name is never shown; listings override it per viewer.
func (r *ChatroomRepo) CreateOneToOne(ctx context.Context, userID, friendID int) (models.Chatroom, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chatroom{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room models.Chatroom
	name := fmt.Sprintf("chat-%d-%d", userID, friendID)
	if err = tx.QueryRowxContext(ctx, `INSERT INTO chatrooms (kind, name) VALUES ($1, $2) RETURNING `+roomColumns, models.RoomOneToOne, name).
		StructScan(&room); err != nil {
		return models.Chatroom{}, err
	}

	for _, id := range []int{userID, friendID} {
		if _, err = tx.ExecContext(ctx, `INSERT INTO chatroom_members (user_id, chatroom_id) VALUES ($1, $2)`, id, room.ID); err != nil {
			return models.Chatroom{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chatroom{}, err
	}
	return room, nil
}

// CreateGroup creates a group room with the creator as sole member.
func (r *ChatroomRepo) CreateGroup(ctx context.Context, userID int, name string) (models.Chatroom, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chatroom{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room models.Chatroom
	if err = tx.QueryRowxContext(ctx, `INSERT INTO chatrooms (kind, name) VALUES ($1, $2) RETURNING `+roomColumns, models.RoomGroup, name).
		StructScan(&room); err != nil {
		return models.Chatroom{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO chatroom_members (user_id, chatroom_id) VALUES ($1, $2)`, userID, room.ID); err != nil {
		return models.Chatroom{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Chatroom{}, err
	}
	return room, nil
}

// GetRoom fetches a chatroom by id.
func (r *ChatroomRepo) GetRoom(ctx context.Context, roomID int) (models.Chatroom, error) {
	var room models.Chatroom
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM chatrooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chatroom{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns the rooms the user belongs to, filtered by a
// case-sensitive substring on the stored name.
func (r *ChatroomRepo) ListRoomsForUser(ctx context.Context, userID int, nameFilter string) ([]models.Chatroom, error) {
	var rooms []models.Chatroom
	query := `SELECT c.id, c.kind, c.name, c.created_at FROM chatrooms c
        INNER JOIN chatroom_members m ON m.chatroom_id = c.id
        WHERE m.user_id=$1 AND c.name LIKE '%' || $2 || '%'
        ORDER BY c.id ASC`
	err := r.db.SelectContext(ctx, &rooms, query, userID, nameFilter)
	return rooms, err
}

// ListMemberIDs returns the member ids of a room.
func (r *ChatroomRepo) ListMemberIDs(ctx context.Context, roomID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM chatroom_members WHERE chatroom_id=$1 ORDER BY user_id ASC`, roomID)
	return ids, err
}

// IsMember checks membership.
func (r *ChatroomRepo) IsMember(ctx context.Context, roomID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chatroom_members WHERE chatroom_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}

// AddMember inserts a membership row. A duplicate insert surfaces as
// ErrAlreadyMember via the primary-key constraint.
func (r *ChatroomRepo) AddMember(ctx context.Context, roomID, userID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO chatroom_members (user_id, chatroom_id) VALUES ($1, $2)`, userID, roomID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrAlreadyMember
	}
	return err
}

// RemoveMember deletes a membership row, reporting ErrNotMember when the
// row did not exist.
func (r *ChatroomRepo) RemoveMember(ctx context.Context, roomID, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chatroom_members WHERE chatroom_id=$1 AND user_id=$2`, roomID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return nil
}

// FindOneToOne locates the one-to-one room shared by the pair with a single
// indexed lookup. ErrRoomNotFound means no such room exists yet.
func (r *ChatroomRepo) FindOneToOne(ctx context.Context, userID1, userID2 int) (int, error) {
	var roomID int
	query := `SELECT c.id FROM chatrooms c
        INNER JOIN chatroom_members m1 ON m1.chatroom_id = c.id AND m1.user_id=$1
        INNER JOIN chatroom_members m2 ON m2.chatroom_id = c.id AND m2.user_id=$2
        WHERE c.kind=$3
        ORDER BY c.id ASC LIMIT 1`
	err := r.db.GetContext(ctx, &roomID, query, userID1, userID2, models.RoomOneToOne)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRoomNotFound
	}
	return roomID, err
}
