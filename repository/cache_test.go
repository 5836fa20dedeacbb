package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"buzznest/cache"
	"buzznest/repository"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	m.hits++
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestPostCount_CachedAndInvalidated(t *testing.T) {
	db := setupTestDB(t)
	store := newMemoryStore()
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, store, time.Minute)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	createPost(t, posts, alice.ID, "one", time.Now().UTC())

	if n, _ := posts.CountByUser(ctx, alice.ID); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	if n, _ := posts.CountByUser(ctx, alice.ID); n != 1 || store.hits != 1 {
		t.Fatalf("expected cached count 1 with one hit, got %d (hits %d)", n, store.hits)
	}

	second := createPost(t, posts, alice.ID, "two", time.Now().UTC())
	if n, _ := posts.CountByUser(ctx, alice.ID); n != 2 {
		t.Errorf("expected create to invalidate count, got %d", n)
	}

	if _, err := posts.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := posts.CountByUser(ctx, alice.ID); n != 1 {
		t.Errorf("expected delete to invalidate count, got %d", n)
	}
}

func TestFollowCounts_InvalidatedOnToggle(t *testing.T) {
	db := setupTestDB(t)
	store := newMemoryStore()
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db, store, time.Minute)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	bob := createUser(t, users, "bob", "bob@x.com")

	if c, _ := follows.GetFollowCounts(ctx, bob.ID); c.FollowersCount != 0 {
		t.Fatalf("expected 0 followers, got %+v", c)
	}
	if c, _ := follows.GetFollowCounts(ctx, alice.ID); c.FollowingCount != 0 {
		t.Fatalf("expected 0 following, got %+v", c)
	}

	if _, err := follows.ToggleFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if c, _ := follows.GetFollowCounts(ctx, bob.ID); c.FollowersCount != 1 {
		t.Errorf("expected stale follower count to be invalidated, got %+v", c)
	}
	if c, _ := follows.GetFollowCounts(ctx, alice.ID); c.FollowingCount != 1 {
		t.Errorf("expected stale following count to be invalidated, got %+v", c)
	}
}
