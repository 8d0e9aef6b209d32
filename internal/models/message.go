package models

import "time"

// MessageType is the payload kind of a message.
type MessageType int

const (
	MessageText MessageType = iota
	MessageImage
	MessageFile
)

var messageTypeNames = map[string]MessageType{
	"text":  MessageText,
	"image": MessageImage,
	"file":  MessageFile,
}

// ParseMessageType maps the wire name of a message type to its stored value.
func ParseMessageType(name string) (MessageType, bool) {
	t, ok := messageTypeNames[name]
	return t, ok
}

// Message is one append-only entry in a room's message log.
type Message struct {
	ID         int         `db:"id" json:"id"`
	ChatroomID int         `db:"chatroom_id" json:"chatroomId"`
	SenderID   int         `db:"sender_id" json:"senderId"`
	Type       MessageType `db:"type" json:"type"`
	Content    string      `db:"content" json:"content"`
	CreatedAt  time.Time   `db:"created_at" json:"sendTime"`
}

// MessageWithSender enriches a message with the sender's profile as fetched
// at send time.
type MessageWithSender struct {
	Message
	Sender User `json:"sender"`
}

// RoomEvent is broadcast to every live session subscribed to a room.
type RoomEvent struct {
	Type    string             `json:"type"`
	UserID  int                `json:"userId"`
	Message *MessageWithSender `json:"message,omitempty"`
}
