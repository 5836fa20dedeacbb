package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied statement by statement; pgx's extended protocol rejects
// multi-statement strings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(50) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_username ON users (username)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users (id),
		content TEXT NOT NULL,
		image_url TEXT,
		video_url TEXT,
		likes_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CHECK (image_url IS NULL OR video_url IS NULL)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user ON posts (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL REFERENCES posts (id),
		user_id UUID NOT NULL REFERENCES users (id),
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS post_likes (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL REFERENCES posts (id),
		user_id UUID NOT NULL REFERENCES users (id),
		created_at TIMESTAMP NOT NULL,
		UNIQUE (post_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS followers (
		id UUID PRIMARY KEY,
		follower_id UUID NOT NULL REFERENCES users (id),
		following_id UUID NOT NULL REFERENCES users (id),
		created_at TIMESTAMP NOT NULL,
		UNIQUE (follower_id, following_id),
		CHECK (follower_id <> following_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_followers_following ON followers (following_id)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
