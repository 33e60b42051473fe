package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoRefreshToken indicates no refresh credential is registered for the user.
var ErrNoRefreshToken = errors.New("auth: no refresh token registered")

// RefreshStore keeps the currently valid refresh JTI per user in Redis.
// Rotation replaces the stored JTI, which invalidates every previously
// issued refresh credential regardless of its embedded expiry.
type RefreshStore struct {
	client *redis.Client
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client) *RefreshStore {
	return &RefreshStore{client: client}
}

func (s *RefreshStore) key(userID int64) string {
	return fmt.Sprintf("auth:refresh:%d", userID)
}

// Save registers jti as the only valid refresh credential for the user.
func (s *RefreshStore) Save(ctx context.Context, userID int64, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(userID), jti, ttl).Err()
}

// Get returns the stored refresh JTI for the user.
func (s *RefreshStore) Get(ctx context.Context, userID int64) (string, error) {
	jti, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoRefreshToken
		}
		return "", err
	}
	return jti, nil
}

// Delete revokes the user's refresh credential.
func (s *RefreshStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
