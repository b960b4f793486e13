package core

import "context"

// Broker defines the contract for message broker implementations.
// Each broker plugin must implement this interface.
//
// Router subscribes one topic per routing key (see RoutingKey), so topic
// names like "data_OrderCreated" must be accepted as-is. Subscribe blocks
// until ctx is cancelled or the broker is closed; a handler error means the
// message was not processed and should be redelivered where the broker
// supports it.
type Broker interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
