package messaging

import (
	"context"
)

// Broker publishes JSON-encodable messages to named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// NopBroker drops every message. Used when event publishing is disabled.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, string, interface{}) error { return nil }

func (NopBroker) Close() error { return nil }
