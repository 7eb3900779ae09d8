// Package session persists the durable half of a user session: the single
// currently valid refresh token per user.
//
// The store is a thin adapter over Redis. Set overwrites unconditionally
// (last write wins); the replay-detection compare happens in the calling
// service against the value read here. Keys carry a TTL equal to the
// refresh-token lifetime so revocation state never outlives the token it
// guards.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned by Get when no refresh token is stored for the
// user (never logged in, logged out, or expired).
var ErrNoSession = errors.New("no stored refresh token")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is the refresh-token store adapter. Safe for concurrent use; all
// consistency guarantees are Redis's per-key atomicity.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// NewStore wraps an existing Redis client. prefix namespaces all keys.
func NewStore(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(userID string) string {
	return fmt.Sprintf("%s:rt:%s", s.prefix, userID)
}

// Get returns the stored refresh token for userID, or ErrNoSession.
func (s *Store) Get(ctx context.Context, userID string) (string, error) {
	val, err := s.rdb.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", errors.Join(ErrRedisUnavailable, err)
	}
	return val, nil
}

// Set stores token as the single current refresh token for userID,
// overwriting any prior value. ttl bounds how long the entry survives and
// must match the token's own validity window.
func (s *Store) Set(ctx context.Context, userID, token string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(userID), token, ttl).Err(); err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// Clear removes the stored refresh token for userID. Clearing an absent
// entry is not an error.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, s.key(userID)).Err(); err != nil {
		return errors.Join(ErrRedisUnavailable, err)
	}
	return nil
}

// Ping verifies connectivity and reports the round-trip time.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return 0, errors.Join(ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
