package events

import (
	"context"
	"fmt"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/pubsub"
	"github.com/tendermint/tendermint/libs/pubsub/query"
	"github.com/tendermint/tendermint/libs/service"

	"github.com/rollkit/lightbridge/types"
)

// TopicKey is the event attribute carrying the message topic.
const TopicKey = "relay.topic"

// DefaultBufferCapacity is the capacity of the bus command queue.
const DefaultBufferCapacity = 100

// Bus broadcasts verification messages to every subscriber of their topic.
// A subscriber whose buffer is full is cancelled with
// pubsub.ErrOutOfCapacity instead of blocking the publisher.
type Bus struct {
	service.BaseService

	pubsub *pubsub.Server
}

// NewBus creates an event bus. Start must be called before use.
func NewBus(logger log.Logger) *Bus {
	b := &Bus{
		pubsub: pubsub.NewServer(pubsub.BufferCapacity(DefaultBufferCapacity)),
	}
	b.BaseService = *service.NewBaseService(logger, "EventBus", b)
	return b
}

// SetLogger sets the logger of the bus and of the underlying pubsub server.
func (b *Bus) SetLogger(l log.Logger) {
	b.BaseService.SetLogger(l)
	b.pubsub.SetLogger(l.With("module", "pubsub"))
}

// OnStart starts the underlying pubsub server.
func (b *Bus) OnStart() error {
	return b.pubsub.Start()
}

// OnStop stops the pubsub server, cancelling every subscription.
func (b *Bus) OnStop() {
	if err := b.pubsub.Stop(); err != nil {
		b.Logger.Error("failed to stop pubsub server", "err", err)
	}
}

// Query returns the query matching messages of topic.
func Query(topic types.Topic) pubsub.Query {
	return query.MustParse(fmt.Sprintf("%s = '%s'", TopicKey, topic))
}

// Subscribe subscribes subscriber to topic with a buffer of capacity messages.
func (b *Bus) Subscribe(ctx context.Context, subscriber string, topic types.Topic, capacity int) (*pubsub.Subscription, error) {
	if !topic.Valid() {
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if capacity < 1 {
		capacity = 1
	}
	return b.pubsub.Subscribe(ctx, subscriber, Query(topic), capacity)
}

// Unsubscribe removes the subscription of subscriber to topic.
func (b *Bus) Unsubscribe(ctx context.Context, subscriber string, topic types.Topic) error {
	return b.pubsub.Unsubscribe(ctx, subscriber, Query(topic))
}

// UnsubscribeAll removes every subscription of subscriber.
func (b *Bus) UnsubscribeAll(ctx context.Context, subscriber string) error {
	return b.pubsub.UnsubscribeAll(ctx, subscriber)
}

// NumClients returns the number of subscribers.
func (b *Bus) NumClients() int {
	return b.pubsub.NumClients()
}

// Publish broadcasts msg to the subscribers of topic. msg is delivered as is;
// conversion to the transport encoding happens in the receiver.
func (b *Bus) Publish(ctx context.Context, topic types.Topic, msg interface{}) error {
	return b.pubsub.PublishWithEvents(ctx, msg, map[string][]string{
		TopicKey: {topic.String()},
	})
}

// PublishEvent broadcasts an internal event on its own topic.
func (b *Bus) PublishEvent(ctx context.Context, event types.Publishable) error {
	return b.Publish(ctx, event.Topic(), event)
}
