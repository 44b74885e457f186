package event

import "context"

// HandlerFunc processes a raw event payload delivered on a topic.
type HandlerFunc func(ctx context.Context, msg []byte) error

type Publisher interface {
	Publish(ctx context.Context, topic string, msg []byte) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler HandlerFunc) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) error {
	return nil
}
