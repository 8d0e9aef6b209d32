package models

import "time"

// RoomKind distinguishes fixed two-party rooms from open groups.
type RoomKind string

const (
	RoomOneToOne RoomKind = "one_to_one"
	RoomGroup    RoomKind = "group"
)

// Chatroom is a named container for a conversation.
type Chatroom struct {
	ID        int       `db:"id" json:"id"`
	Kind      RoomKind  `db:"kind" json:"kind"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createTime"`
}

// RoomSummary is the per-viewer listing view of a chatroom. For one-to-one
// rooms Name is overridden with the other member's nick name.
type RoomSummary struct {
	Chatroom
	UserCount int   `json:"userCount"`
	UserIDs   []int `json:"userIds"`
}

// RoomInfo bundles a chatroom with its member profiles.
type RoomInfo struct {
	Chatroom
	Users []User `json:"users"`
}
