package sse_test

import (
	"sync"

	"bidhouse/adapters/sse"
)

type bidMessage struct {
	Price string `json:"price"`
}

// loopback stands in for a shared stream: every published request comes back on Subscribe.
type loopback struct {
	mu     sync.Mutex
	ch     chan sse.PublishRequest[bidMessage]
	closed bool
}

func newLoopback() *loopback {
	return &loopback{ch: make(chan sse.PublishRequest[bidMessage], 8)}
}

func (l *loopback) Publish(req sse.PublishRequest[bidMessage]) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.ch <- req
	}
	return nil
}

func (l *loopback) Subscribe() <-chan sse.PublishRequest[bidMessage] {
	return l.ch
}

func (l *loopback) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
}
