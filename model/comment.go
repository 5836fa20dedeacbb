package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PostID    uuid.UUID `json:"postId" db:"post_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CommentRow is a comment joined with its author.
type CommentRow struct {
	Comment
	AuthorUsername string `db:"author_username"`
	AuthorEmail    string `db:"author_email"`
}

type CommentDetail struct {
	Comment
	Author UserSummary `json:"user"`
}

func (r CommentRow) Detail() CommentDetail {
	return CommentDetail{
		Comment: r.Comment,
		Author:  UserSummary{ID: r.UserID, Username: r.AuthorUsername, Email: r.AuthorEmail},
	}
}

type CreateCommentRequest struct {
	PostID  string `json:"postId" validate:"required,uuid"`
	Content string `json:"content" validate:"required,max=2000"`
}

type CommentContentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type CommentResponse struct {
	Message string   `json:"message"`
	Comment *Comment `json:"comment"`
}

type CommentsResponse struct {
	Comments []Comment `json:"comments"`
}
