package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"social-chat-service/internal/models"
)

const messageColumns = `id, chatroom_id, sender_id, type, content, created_at`

// MessageRepository defines the append-only message log.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, senderID int, msgType models.MessageType, content string) (models.Message, error)
	ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message to the room's log.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, senderID int, msgType models.MessageType, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (chatroom_id, sender_id, type, content) VALUES ($1, $2, $3, $4) RETURNING `+messageColumns,
		roomID, senderID, msgType, content).StructScan(&msg)
	return msg, err
}

// ListRoomMessages returns the room's messages in insertion order. The
// serial id is the ordering contract: replay never reorders.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE chatroom_id=$1 ORDER BY id ASC`, roomID)
	return msgs, err
}
