package pkg

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/appetiteclub/captain/pkg/event"
	"github.com/appetiteclub/captain/pkg/lib/core"
)

// NATSPublisher publishes captain events on core NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("captain-publisher"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if p == nil || p.conn == nil {
		return fmt.Errorf("nats publisher not connected")
	}
	return p.conn.Publish(topic, msg)
}

func (p *NATSPublisher) Close() error {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// NATSSubscriber delivers subject messages to event handlers. Handler errors
// are logged and the message is dropped; core NATS has no redelivery.
type NATSSubscriber struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger core.Logger
}

func NewNATSSubscriber(url string, logger core.Logger) (*NATSSubscriber, error) {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	conn, err := nats.Connect(url, nats.Name("captain-subscriber"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSubscriber{conn: conn, logger: logger}, nil
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler event.HandlerFunc) error {
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			s.logger.Error("event handler failed", "topic", topic, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *NATSSubscriber) Close() error {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.conn.Close()
	return nil
}
