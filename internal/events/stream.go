package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// CheckoutStream publishes checkout events through NATS JetStream so
// downstream consumers (receipts, analytics) can replay events missed
// during downtime. Core NATS drops what nobody is listening for; checkout
// events are worth keeping. This side only produces; consumers create
// their own durable consumers against the stream.
type CheckoutStream struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// CheckoutStreamConfig configures a CheckoutStream instance.
type CheckoutStreamConfig struct {
	URL        string        // NATS server URL
	StreamName string        // JetStream stream name (e.g., "CART_EVENTS")
	Topic      string        // Subject pattern (e.g., "carts.checkout")
	MaxAge     time.Duration // How long to retain events
	MaxMsgs    int64         // Maximum number of messages to retain (0 = unlimited)
}

// NewCheckoutStream connects and ensures the stream exists with the
// configured retention.
func NewCheckoutStream(cfg CheckoutStreamConfig) (*CheckoutStream, error) {
	conn, err := connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Topic},
		MaxAge:   cfg.MaxAge,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	if _, err := js.CreateOrUpdateStream(context.Background(), streamConfig); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	return &CheckoutStream{
		conn: conn,
		js:   js,
	}, nil
}

// Publish publishes a message to the stream.
func (s *CheckoutStream) Publish(ctx context.Context, topic string, msg []byte) error {
	_, err := s.js.Publish(ctx, topic, msg)
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (s *CheckoutStream) Close() error {
	s.conn.Close()
	return nil
}
