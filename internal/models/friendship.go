package models

import "time"

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus int

const (
	RequestPending RequestStatus = iota
	RequestAccepted
	RequestRejected
)

// FriendRequest is a directed request from one user to another. Rows are
// never deleted, only transitioned via accept/reject.
type FriendRequest struct {
	ID         int           `db:"id" json:"id"`
	FromUserID int           `db:"from_user_id" json:"fromUserId"`
	ToUserID   int           `db:"to_user_id" json:"toUserId"`
	Reason     string        `db:"reason" json:"reason"`
	Status     RequestStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"createTime"`
}

// Friendship is a confirmed edge between two users. The relation is
// symmetric: queries must consider both orientations.
type Friendship struct {
	UserID    int       `db:"user_id" json:"userId"`
	FriendID  int       `db:"friend_id" json:"friendId"`
	CreatedAt time.Time `db:"created_at" json:"createTime"`
}

// RequestWithUser pairs a request with the counterpart's profile.
type RequestWithUser struct {
	FriendRequest
	User User `json:"user"`
}

// RequestList groups a user's requests by direction.
type RequestList struct {
	Incoming []RequestWithUser `json:"incoming"`
	Outgoing []RequestWithUser `json:"outgoing"`
}
