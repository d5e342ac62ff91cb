package market

import (
	"context"
	"fmt"
	"sync"
)

// Locker serialises read-validate-write workflows that share a key.
// The returned context is cancelled when the lock is lost or released.
type Locker interface {
	Lock(ctx context.Context, key string) (context.Context, func(), error)
}

func auctionLockKey(auctionID uint) string {
	return fmt.Sprintf("auction:%d", auctionID)
}

func walletLockKey(userID uint) string {
	return fmt.Sprintf("wallet:user:%d", userID)
}

// LocalLocker is an in-process Locker for single-instance deployments and tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lk, false)
		return nil, nil, ctx.Err()
	}

	lockCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	return lockCtx, func() {
		once.Do(func() {
			cancel()
			l.release(key, lk, true)
		})
	}, nil
}

func (l *LocalLocker) release(key string, lk *localLock, held bool) {
	if held {
		<-lk.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
}
