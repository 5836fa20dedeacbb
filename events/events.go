package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	PostCreated    = "post.created"
	PostDeleted    = "post.deleted"
	PostLiked      = "post.liked"
	PostUnliked    = "post.unliked"
	CommentAdded   = "comment.added"
	UserFollowed   = "user.followed"
	UserUnfollowed = "user.unfollowed"
)

// Event payloads
type PostCreatedEvent struct {
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"media_url"`
	MediaKind string    `json:"media_kind"`
	CreatedAt time.Time `json:"created_at"`
}

type PostDeletedEvent struct {
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type PostLikeEvent struct {
	PostID     uuid.UUID `json:"post_id"`
	PostUserID uuid.UUID `json:"post_user_id"`
	UserID     uuid.UUID `json:"user_id"`
	LikesCount int64     `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommentAddedEvent struct {
	CommentID uuid.UUID `json:"comment_id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type FollowEvent struct {
	FollowerID  uuid.UUID `json:"follower_id"`
	FollowingID uuid.UUID `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
