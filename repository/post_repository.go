package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"buzznest/cache"
	"buzznest/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID uuid.UUID) (*models.Post, error)
	Exists(ctx context.Context, postID uuid.UUID) (bool, error)
	UpdateContent(ctx context.Context, postID uuid.UUID, content string, updatedAt time.Time) (*models.Post, error)
	Delete(ctx context.Context, postID uuid.UUID) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*models.Post, bool, error)
	ListFeed(ctx context.Context, ownerID *uuid.UUID, page models.Page) ([]models.FeedPost, string, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type postRepository struct {
	db    *sqlx.DB
	cache cache.Store
	ttl   time.Duration
}

// NewPostRepository returns a PostRepository that caches per-user post counts
// in store for ttl. A nil store disables caching.
func NewPostRepository(db *sqlx.DB, store cache.Store, ttl time.Duration) PostRepository {
	if store == nil {
		store = cache.Noop{}
	}
	return &postRepository{db: db, cache: store, ttl: ttl}
}

const postColumns = `p.id, p.user_id, p.content, p.image_url, p.video_url, p.likes_count, p.created_at, p.updated_at`

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := r.db.Rebind(`
		INSERT INTO posts (id, user_id, content, image_url, video_url, likes_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.UserID,
		post.Content,
		post.ImageURL,
		post.VideoURL,
		post.LikesCount,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	r.invalidatePostCount(ctx, post.UserID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	return getPost(ctx, r.db, postID)
}

func (r *postRepository) Exists(ctx context.Context, postID uuid.UUID) (bool, error) {
	var exists bool
	query := r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`)
	if err := r.db.GetContext(ctx, &exists, query, postID); err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return exists, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, postID uuid.UUID, content string, updatedAt time.Time) (*models.Post, error) {
	query := r.db.Rebind(`UPDATE posts SET content = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, content, updatedAt, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return getPost(ctx, r.db, postID)
}

// Delete removes the post together with its likes and comments in one
// transaction and returns the row as it was before deletion.
func (r *postRepository) Delete(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	post, err := getPost(ctx, tx, postID)
	if err != nil {
		return nil, err
	}

	for _, stmt := range []string{
		`DELETE FROM post_likes WHERE post_id = ?`,
		`DELETE FROM comments WHERE post_id = ?`,
		`DELETE FROM posts WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), postID); err != nil {
			return nil, fmt.Errorf("failed to delete post: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit post deletion: %w", err)
	}

	r.invalidatePostCount(ctx, post.UserID)
	return post, nil
}

// ToggleLike flips the user's like on the post and resets likes_count from the
// like rows. It reports whether the post is liked afterwards.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*models.Post, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`), postID); err != nil {
		return nil, false, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, false, ErrNotFound
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`), postID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to delete like: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	liked := removed == 0
	if liked {
		insert := tx.Rebind(`
			INSERT INTO post_likes (id, post_id, user_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`)
		like := models.PostLike{ID: uuid.New(), PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
		if _, err := tx.ExecContext(ctx, insert, like.ID, like.PostID, like.UserID, like.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("failed to create like: %w", err)
		}
	}

	recount := tx.Rebind(`
		UPDATE posts
		SET likes_count = (SELECT COUNT(*) FROM post_likes WHERE post_id = ?)
		WHERE id = ?
	`)
	if _, err := tx.ExecContext(ctx, recount, postID, postID); err != nil {
		return nil, false, fmt.Errorf("failed to update likes count: %w", err)
	}

	post, err := getPost(ctx, tx, postID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit like toggle: %w", err)
	}
	return post, liked, nil
}

// ListFeed returns posts newest first with their authors and comment threads.
// A nil ownerID lists every post. When page.Limit is positive the second
// return value is the cursor of the next page, or "" on the last page.
func (r *postRepository) ListFeed(ctx context.Context, ownerID *uuid.UUID, page models.Page) ([]models.FeedPost, string, error) {
	query := `
		SELECT ` + postColumns + `, u.username AS author_username, u.email AS author_email
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE 1 = 1`
	var args []interface{}

	if ownerID != nil {
		query += ` AND p.user_id = ?`
		args = append(args, *ownerID)
	}

	if page.Cursor != "" {
		cursor, err := decodeCursor(page.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		query += ` AND (p.created_at < ? OR (p.created_at = ? AND p.id < ?))`
		args = append(args, cursor.Timestamp, cursor.Timestamp, cursor.ID)
	}

	query += ` ORDER BY p.created_at DESC, p.id DESC`
	if page.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, page.Limit+1)
	}

	var rows []models.PostRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, "", fmt.Errorf("failed to list posts: %w", err)
	}

	var nextCursor string
	if page.Limit > 0 && len(rows) > page.Limit {
		rows = rows[:page.Limit]
		last := rows[len(rows)-1]
		nextCursor = encodeCursor(last.CreatedAt, last.ID)
	}

	posts := make([]models.FeedPost, len(rows))
	if len(rows) == 0 {
		return posts, nextCursor, nil
	}

	postIDs := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		postIDs[i] = row.ID
	}

	threads, err := r.commentsByPost(ctx, postIDs)
	if err != nil {
		return nil, "", err
	}

	for i, row := range rows {
		comments := threads[row.ID]
		if comments == nil {
			comments = []models.CommentDetail{}
		}
		posts[i] = models.FeedPost{
			Post: row.Post,
			Author: models.UserSummary{
				ID:       row.UserID,
				Username: row.AuthorUsername,
				Email:    row.AuthorEmail,
			},
			Comments: comments,
		}
	}

	return posts, nextCursor, nil
}

func (r *postRepository) commentsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]models.CommentDetail, error) {
	query, args, err := sqlx.In(`
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       u.username AS author_username, u.email AS author_email
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id IN (?)
		ORDER BY c.created_at ASC, c.id ASC
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build comments query: %w", err)
	}

	var rows []models.CommentRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	threads := make(map[uuid.UUID][]models.CommentDetail, len(postIDs))
	for _, row := range rows {
		threads[row.PostID] = append(threads[row.PostID], row.Detail())
	}
	return threads, nil
}

func (r *postRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	cacheKey := cache.PostCountKey(userID)

	var count int64
	if cache.GetJSON(ctx, r.cache, cacheKey, &count) {
		return count, nil
	}

	query := r.db.Rebind(`SELECT COUNT(*) FROM posts WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	_ = cache.SetJSON(ctx, r.cache, cacheKey, count, r.ttl)
	return count, nil
}

func (r *postRepository) invalidatePostCount(ctx context.Context, userID uuid.UUID) {
	_ = r.cache.Delete(ctx, cache.PostCountKey(userID))
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func getPost(ctx context.Context, q queryer, postID uuid.UUID) (*models.Post, error) {
	var post models.Post
	query := q.Rebind(`
		SELECT `+postColumns+`
		FROM posts p
		WHERE p.id = ?
	`)
	if err := sqlx.GetContext(ctx, q, &post, query, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}
