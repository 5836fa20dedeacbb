package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Cache key prefixes
const (
	followCountsPrefix = "buzz:follows:"
	postCountPrefix    = "buzz:postcount:"
)

func FollowCountsKey(userID uuid.UUID) string {
	return followCountsPrefix + userID.String()
}

func PostCountKey(userID uuid.UUID) string {
	return postCountPrefix + userID.String()
}

// GetJSON decodes the cached value at key into v. It reports false on a miss
// or on any store or decoding error.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) bool {
	data, err := s.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data, ttl)
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }
