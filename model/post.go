package models

import (
	"time"

	"github.com/google/uuid"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type Post struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	Content    string    `json:"content" db:"content"`
	ImageURL   *string   `json:"imageUrl" db:"image_url"`
	VideoURL   *string   `json:"videoUrl" db:"video_url"`
	LikesCount int64     `json:"likesCount" db:"likes_count"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// SetMedia stores url in the column matching kind and clears the other one.
func (p *Post) SetMedia(kind MediaKind, url string) {
	p.ImageURL, p.VideoURL = nil, nil
	if kind == MediaVideo {
		p.VideoURL = &url
		return
	}
	p.ImageURL = &url
}

// PostRow is a post joined with its author, as scanned from the feed query.
type PostRow struct {
	Post
	AuthorUsername string `db:"author_username"`
	AuthorEmail    string `db:"author_email"`
}

// FeedPost is a post as rendered in the feed: author, like count and the full
// comment thread.
type FeedPost struct {
	Post
	Author   UserSummary     `json:"user"`
	Comments []CommentDetail `json:"comments"`
}

// Page requests keyset paging. A zero Limit means unbounded.
type Page struct {
	Limit  int
	Cursor string
}

type UpdatePostRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type PostResponse struct {
	Message string `json:"message"`
	Post    *Post  `json:"post"`
}

type LikeResponse struct {
	Message     string `json:"message"`
	Liked       bool   `json:"liked"`
	UpdatedPost *Post  `json:"updatedPost"`
}
