package sse

// PublishRequest carries a message addressed to one channel across instances.
type PublishRequest[T any] struct {
	Channel string `json:"channel" msgpack:"channel"`
	Message T      `json:"message" msgpack:"message"`
}

// IChannel fans messages out to the subscribers of one topic.
type IChannel[T any] interface {
	Subscribe() <-chan T
	Unsubscribe(ch <-chan T)
	UnsubscribeAll()
	// Broadcast delivers message to every subscriber and returns how many were skipped because they were full.
	Broadcast(message T) int
	IsIdle() bool
}

// IPublisher forwards publish requests to the shared transport.
type IPublisher[T any] interface {
	Publish(data T) error
}

// ISubscriber yields publish requests from the shared transport.
type ISubscriber[T any] interface {
	Subscribe() <-chan T
}

// IConnectionManager keeps the live subscriptions of this instance.
type IConnectionManager[T any] interface {
	// Start begins delivering messages from the subscriber. Call it before the other methods.
	Start()
	// Done stops delivery and closes every subscription.
	Done()
	Subscribe(channelName string) (<-chan T, error)
	Publish(channelName string, data T) error
	Unsubscribe(channelName string, ch <-chan T)
}
