package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNoopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var s Store = Noop{}

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}

	var v int
	if GetJSON(ctx, s, "k", &v) {
		t.Error("expected GetJSON to report a miss")
	}
}

func TestKeysAreDistinctPerUser(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if FollowCountsKey(a) == FollowCountsKey(b) {
		t.Error("follow count keys collide")
	}
	if FollowCountsKey(a) == PostCountKey(a) {
		t.Error("follow and post count keys collide")
	}
}
