package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrManagerClosed = errors.New("connection manager is closed")

type options[T any] struct {
	logger     *slog.Logger
	publisher  IPublisher[PublishRequest[T]]
	subscriber ISubscriber[PublishRequest[T]]
	bufferSize int
}

type Option[T any] func(*options[T])

func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(o *options[T]) {
		o.logger = logger
	}
}

// WithPublisher routes Publish through a shared transport instead of broadcasting locally.
func WithPublisher[T any](publisher IPublisher[PublishRequest[T]]) Option[T] {
	return func(o *options[T]) {
		o.publisher = publisher
	}
}

// WithSubscriber feeds messages from a shared transport to local subscriptions.
func WithSubscriber[T any](subscriber ISubscriber[PublishRequest[T]]) Option[T] {
	return func(o *options[T]) {
		o.subscriber = subscriber
	}
}

// WithBufferSize sets how many undelivered messages a subscription holds before dropping.
func WithBufferSize[T any](size int) Option[T] {
	return func(o *options[T]) {
		o.bufferSize = size
	}
}

type connectionManager[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.RWMutex
	wg     sync.WaitGroup
	active bool

	publisher  IPublisher[PublishRequest[T]]
	subscriber ISubscriber[PublishRequest[T]]
	bufferSize int
	channels   map[string]*Channel[T]
}

// NewConnectionManager creates a manager. Without a publisher, Publish broadcasts
// to this instance only.
func NewConnectionManager[T any](opts ...Option[T]) IConnectionManager[T] {
	o := options[T]{
		logger:     slog.Default(),
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &connectionManager[T]{
		ctx:        ctx,
		cancel:     cancel,
		logger:     o.logger.With(slog.String("caller", "ConnectionManager")),
		active:     true,
		publisher:  o.publisher,
		subscriber: o.subscriber,
		bufferSize: o.bufferSize,
		channels:   make(map[string]*Channel[T]),
	}
}

func (cm *connectionManager[T]) Start() {
	if cm.subscriber == nil {
		return
	}
	upstream := cm.subscriber.Subscribe()
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for {
			select {
			case <-cm.ctx.Done():
				return
			case msg, ok := <-upstream:
				if !ok {
					return
				}
				cm.broadcast(msg)
			}
		}
	}()
}

func (cm *connectionManager[T]) broadcast(msg PublishRequest[T]) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	channel, ok := cm.channels[msg.Channel]
	if !ok {
		return
	}
	if dropped := channel.Broadcast(msg.Message); dropped > 0 {
		cm.logger.Warn("Drop message for slow subscribers", slog.String("channel", msg.Channel), slog.Int("dropped", dropped))
	}
}

func (cm *connectionManager[T]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	cm.cancel()
	cm.mu.Unlock()

	cm.wg.Wait()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

func (cm *connectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, ErrManagerClosed
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T](cm.bufferSize)
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

func (cm *connectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	active := cm.active
	cm.mu.RUnlock()
	if !active {
		return ErrManagerClosed
	}

	msg := PublishRequest[T]{Channel: channelName, Message: data}
	if cm.publisher != nil {
		return cm.publisher.Publish(msg)
	}
	cm.broadcast(msg)
	return nil
}

// Unsubscribe closes ch and forgets the channel once it has no subscribers.
func (cm *connectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}
	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}
