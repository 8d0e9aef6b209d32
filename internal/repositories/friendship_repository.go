package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-chat-service/internal/models"
)

var (
	ErrSelfReference  = errors.New("cannot befriend yourself")
	ErrAlreadyFriends = errors.New("already friends")
)

const requestColumns = `id, from_user_id, to_user_id, reason, status, created_at`

// FriendshipRepository abstracts friend-request and friendship-edge
// persistence.
type FriendshipRepository interface {
	CreateRequest(ctx context.Context, fromID, toID int, reason string) (models.FriendRequest, error)
	ListRequestsFrom(ctx context.Context, userID int) ([]models.FriendRequest, error)
	ListRequestsTo(ctx context.Context, userID int) ([]models.FriendRequest, error)
	AcceptPending(ctx context.Context, fromID, toID int) error
	RejectPending(ctx context.Context, fromID, toID int) error
	EdgeExists(ctx context.Context, userID, friendID int) (bool, error)
	CreateEdge(ctx context.Context, userID, friendID int) error
	ListFriendIDs(ctx context.Context, userID int) ([]int, error)
	RemoveEdge(ctx context.Context, userID, friendID int) error
}

// FriendshipRepo is a sqlx implementation of FriendshipRepository.
type FriendshipRepo struct {
	db *sqlx.DB
}

// NewFriendshipRepo constructs a FriendshipRepo.
func NewFriendshipRepo(db *sqlx.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

// CreateRequest inserts a pending friend request. Multiple pending requests
// for the same pair are allowed; acceptance flips them all at once.
func (r *FriendshipRepo) CreateRequest(ctx context.Context, fromID, toID int, reason string) (models.FriendRequest, error) {
	if fromID == toID {
		return models.FriendRequest{}, ErrSelfReference
	}

	exists, err := r.EdgeExists(ctx, fromID, toID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if exists {
		return models.FriendRequest{}, ErrAlreadyFriends
	}

	var req models.FriendRequest
	err = r.db.QueryRowxContext(ctx, `INSERT INTO friend_requests (from_user_id, to_user_id, reason, status) VALUES ($1, $2, $3, $4) RETURNING `+requestColumns, fromID, toID, reason, models.RequestPending).
		StructScan(&req)
	return req, err
}

// ListRequestsFrom returns every request sent by the user, any status.
func (r *FriendshipRepo) ListRequestsFrom(ctx context.Context, userID int) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.SelectContext(ctx, &reqs, `SELECT `+requestColumns+` FROM friend_requests WHERE from_user_id=$1 ORDER BY id ASC`, userID)
	return reqs, err
}

// ListRequestsTo returns every request addressed to the user, any status.
func (r *FriendshipRepo) ListRequestsTo(ctx context.Context, userID int) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.SelectContext(ctx, &reqs, `SELECT `+requestColumns+` FROM friend_requests WHERE to_user_id=$1 ORDER BY id ASC`, userID)
	return reqs, err
}

// AcceptPending flips every pending request for the directed pair to
// accepted. Zero matching rows is not an error; acceptance is retry-safe.
func (r *FriendshipRepo) AcceptPending(ctx context.Context, fromID, toID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE friend_requests SET status=$1 WHERE from_user_id=$2 AND to_user_id=$3 AND status=$4`,
		models.RequestAccepted, fromID, toID, models.RequestPending)
	return err
}

// RejectPending flips every pending request for the directed pair to
// rejected.
func (r *FriendshipRepo) RejectPending(ctx context.Context, fromID, toID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE friend_requests SET status=$1 WHERE from_user_id=$2 AND to_user_id=$3 AND status=$4`,
		models.RequestRejected, fromID, toID, models.RequestPending)
	return err
}

// EdgeExists reports whether an edge exists in either orientation.
func (r *FriendshipRepo) EdgeExists(ctx context.Context, userID, friendID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friendships WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1))`, userID, friendID)
	return exists, err
}

// CreateEdge inserts a friendship edge in the orientation given.
func (r *FriendshipRepo) CreateEdge(ctx context.Context, userID, friendID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2)`, userID, friendID)
	return err
}

// ListFriendIDs computes the symmetric closure of edges touching the user,
// excluding the user itself.
func (r *FriendshipRepo) ListFriendIDs(ctx context.Context, userID int) ([]int, error) {
	var rows []models.Friendship
	err := r.db.SelectContext(ctx, &rows, `SELECT user_id, friend_id, created_at FROM friendships WHERE user_id=$1 OR friend_id=$1`, userID)
	if err != nil {
		return nil, err
	}

	seen := map[int]struct{}{}
	ids := make([]int, 0, len(rows))
	for _, edge := range rows {
		for _, id := range []int{edge.UserID, edge.FriendID} {
			if id == userID {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// RemoveEdge deletes the edge in both orientations so removal never
// silently misses the stored direction.
func (r *FriendshipRepo) RemoveEdge(ctx context.Context, userID, friendID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)`, userID, friendID)
	return err
}
