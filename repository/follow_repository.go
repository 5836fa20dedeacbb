package repository

import (
	"context"
	"fmt"
	"time"

	"buzznest/cache"
	"buzznest/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type FollowRepository interface {
	ToggleFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	GetFollowCounts(ctx context.Context, userID uuid.UUID) (*models.FollowCounts, error)
}

type followRepository struct {
	db    *sqlx.DB
	cache cache.Store
	ttl   time.Duration
}

// NewFollowRepository returns a FollowRepository that caches follow counts in
// store for ttl. A nil store disables caching.
func NewFollowRepository(db *sqlx.DB, store cache.Store, ttl time.Duration) FollowRepository {
	if store == nil {
		store = cache.Noop{}
	}
	return &followRepository{db: db, cache: store, ttl: ttl}
}

// ToggleFollow removes the follow edge if present, otherwise creates it, and
// reports whether the edge exists afterwards. ErrNotFound means the followed
// user does not exist.
func (r *followRepository) ToggleFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	if followerID == followingID {
		return false, fmt.Errorf("users cannot follow themselves")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`), followingID); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}

	result, err := tx.ExecContext(ctx,
		tx.Rebind(`DELETE FROM followers WHERE follower_id = ? AND following_id = ?`),
		followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to unfollow user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	following := rowsAffected == 0
	if following {
		query := tx.Rebind(`
			INSERT INTO followers (id, follower_id, following_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (follower_id, following_id) DO NOTHING
		`)
		follow := models.Follow{ID: uuid.New(), FollowerID: followerID, FollowingID: followingID, CreatedAt: time.Now().UTC()}
		if _, err := tx.ExecContext(ctx, query, follow.ID, follow.FollowerID, follow.FollowingID, follow.CreatedAt); err != nil {
			return false, fmt.Errorf("failed to follow user: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit follow toggle: %w", err)
	}

	_ = r.cache.Delete(ctx, cache.FollowCountsKey(followerID), cache.FollowCountsKey(followingID))
	return following, nil
}

// GetFollowCounts returns the number of incoming (followers) and outgoing
// (following) edges of the user.
func (r *followRepository) GetFollowCounts(ctx context.Context, userID uuid.UUID) (*models.FollowCounts, error) {
	cacheKey := cache.FollowCountsKey(userID)

	var counts models.FollowCounts
	if cache.GetJSON(ctx, r.cache, cacheKey, &counts) {
		return &counts, nil
	}

	query := r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM followers WHERE following_id = ?) AS followers_count,
			(SELECT COUNT(*) FROM followers WHERE follower_id = ?) AS following_count
	`)

	if err := r.db.QueryRowxContext(ctx, query, userID, userID).Scan(&counts.FollowersCount, &counts.FollowingCount); err != nil {
		return nil, fmt.Errorf("failed to get follow counts: %w", err)
	}

	_ = cache.SetJSON(ctx, r.cache, cacheKey, counts, r.ttl)
	return &counts, nil
}
