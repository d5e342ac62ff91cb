package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps revoked token IDs as expiring redis keys.
type RevocationStore struct {
	client  *redis.Client
	options StoreOptions
}

type StoreOptions struct {
	Prefix string
}

type StoreOption func(*StoreOptions)

// WithStorePrefix sets the key prefix of the store.
func WithStorePrefix(prefix string) StoreOption {
	return func(o *StoreOptions) {
		o.Prefix = prefix
	}
}

func NewRevocationStore(client *redis.Client, opts ...StoreOption) *RevocationStore {
	options := &StoreOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return &RevocationStore{
		client:  client,
		options: *options,
	}
}

// Revoke marks tokenID revoked for ttl. A non-positive ttl is a no-op since the token already expired.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	const op = "redis.RevocationStore.Revoke"
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.options.Prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("[%s] Fail to set key, err=%w", op, err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const op = "redis.RevocationStore.IsRevoked"
	n, err := s.client.Exists(ctx, s.options.Prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("[%s] Fail to check key, err=%w", op, err)
	}
	return n > 0, nil
}
