package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

type AutoRenewMutex struct {
	*redsync.Mutex
	cancel   context.CancelFunc
	renewing bool
	mu       sync.Mutex
	wg       sync.WaitGroup
	options  autoRenewMutexOptions
}

type autoRenewMutexOptions struct {
	renewInterval time.Duration
	retryDelay    time.Duration
	expiry        time.Duration
	skipLockError bool
}

type AutoRenewMutexOption func(*autoRenewMutexOptions)

// WithAutoRenewMutexRenewInterval sets how often the lock is extended.
func WithAutoRenewMutexRenewInterval(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.renewInterval = d
	}
}

// WithAutoRenewMutexRetryDelay sets the wait between acquisition attempts.
func WithAutoRenewMutexRetryDelay(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.retryDelay = d
	}
}

// WithAutoRenewMutexExpiry sets the lock TTL.
func WithAutoRenewMutexExpiry(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.expiry = d
	}
}

// WithAutoRenewMutexSkipLockError keeps retrying on redis errors instead of failing.
func WithAutoRenewMutexSkipLockError(skip bool) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.skipLockError = skip
	}
}

func buildMutexOptions(opts []AutoRenewMutexOption) autoRenewMutexOptions {
	options := autoRenewMutexOptions{
		expiry:     8 * time.Second,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}
	// renew at a third of the TTL unless told otherwise
	if options.renewInterval <= 0 {
		options.renewInterval = options.expiry / 3
	}
	return options
}

func newAutoRenewMutex(rs *redsync.Redsync, key string, options autoRenewMutexOptions) *AutoRenewMutex {
	mutex := rs.NewMutex(
		key,
		redsync.WithExpiry(options.expiry),
		redsync.WithTries(1),
		redsync.WithRetryDelay(options.retryDelay),
	)
	return &AutoRenewMutex{
		Mutex:   mutex,
		options: options,
	}
}

// NewAutoRenewMutex creates a mutex on key that keeps extending itself while held.
func NewAutoRenewMutex(client *redis.Client, key string, opts ...AutoRenewMutexOption) IAutoRenewMutex {
	rs := redsync.New(goredis.NewPool(client))
	return newAutoRenewMutex(rs, key, buildMutexOptions(opts))
}

// Lock waits for the mutex until ctx is done. The returned context is cancelled
// on Unlock or when a renewal fails.
func (m *AutoRenewMutex) Lock(ctx context.Context) (context.Context, error) {
	timer := time.NewTimer(1)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			err := m.Mutex.LockContext(ctx)
			if err == nil {
				lockCtx, cancel := context.WithCancel(ctx)
				m.mu.Lock()
				m.cancel = cancel
				m.mu.Unlock()
				m.startAutoRenew(lockCtx)
				return lockCtx, nil
			}
			// a taken lock is retried; redis failures abort unless skipped
			var commErr *redsync.RedisError
			if !m.options.skipLockError && errors.As(err, &commErr) {
				return nil, fmt.Errorf("failed to acquire lock: %w", err)
			}
			timer.Reset(m.options.retryDelay)
		}
	}
}

// Unlock stops renewing and releases the mutex.
func (m *AutoRenewMutex) Unlock() (bool, error) {
	m.stopAutoRenew()
	m.wg.Wait()
	return m.Mutex.Unlock()
}

// Valid reports whether the mutex is held and has not expired.
func (m *AutoRenewMutex) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewing && time.Now().Before(m.Mutex.Until())
}

func (m *AutoRenewMutex) startAutoRenew(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renewing {
		return
	}

	m.renewing = true
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.options.renewInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				success, err := m.Mutex.Extend()
				if err != nil || !success {
					m.stopAutoRenew()
					return
				}
			}
		}
	}()
}

func (m *AutoRenewMutex) stopAutoRenew() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.renewing {
		return
	}

	m.renewing = false
	if m.cancel != nil {
		m.cancel()
	}
}

// MutexLocker hands out auto-renewing mutexes keyed by resource name.
// It satisfies market.Locker.
type MutexLocker struct {
	rs      *redsync.Redsync
	prefix  string
	options autoRenewMutexOptions
	logger  *slog.Logger
}

// NewMutexLocker creates a locker whose redis keys are prefix+key.
func NewMutexLocker(client *redis.Client, prefix string, logger *slog.Logger, opts ...AutoRenewMutexOption) *MutexLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutexLocker{
		rs:      redsync.New(goredis.NewPool(client)),
		prefix:  prefix,
		options: buildMutexOptions(opts),
		logger:  logger.With(slog.String("caller", "MutexLocker")),
	}
}

func (l *MutexLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	const op = "redis.MutexLocker.Lock"
	mutex := newAutoRenewMutex(l.rs, l.prefix+key, l.options)
	lockCtx, err := mutex.Lock(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("[%s] Fail to lock %s, err=%w", op, key, err)
	}
	var once sync.Once
	unlock := func() {
		once.Do(func() {
			if ok, err := mutex.Unlock(); err != nil || !ok {
				l.logger.Warn("Fail to release lock", slog.String("key", key), slog.Any("error", err))
			}
		})
	}
	return lockCtx, unlock, nil
}
