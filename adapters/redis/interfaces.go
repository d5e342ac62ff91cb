package redis

import (
	"context"
	"time"
)

// IProducer appends messages to a stream.
type IProducer[T any] interface {
	Start()
	Publish(data T) error
	Close()
}

// IConsumer tails a stream from the moment it starts.
type IConsumer[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}

// IAutoRenewMutex is a distributed lock that extends itself until released.
type IAutoRenewMutex interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}

// IRevocationStore remembers revoked token IDs until they would have expired anyway.
type IRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
