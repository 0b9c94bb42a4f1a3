package relay

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tendermint/tendermint/libs/pubsub"

	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/types"
)

// State of a Relay.
type State int32

const (
	// Listening relays are waiting for, or delivering, messages.
	Listening State = iota
	// Stopped relays are terminated for good.
	Stopped
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Source is a broadcast receiver. *pubsub.Subscription implements it.
type Source interface {
	Out() <-chan pubsub.Message
	Cancelled() <-chan struct{}
	Err() error
}

var _ Source = &pubsub.Subscription{}

// Relay forwards the messages of one topic to a Notifier, in receive order.
// A message that cannot be encoded is logged and dropped. The relay stops
// for good once its source is cancelled.
type Relay struct {
	topic    types.Topic
	source   Source
	notifier Notifier
	logger   log.Logger
	metrics  *Metrics

	state atomic.Int32
}

// New creates a relay of topic messages received from source.
func New(topic types.Topic, source Source, notifier Notifier, logger log.Logger, metrics *Metrics) *Relay {
	if metrics == nil {
		metrics = NopMetrics()
	}
	r := &Relay{
		topic:    topic,
		source:   source,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
	r.state.Store(int32(Listening))
	return r
}

// Topic returns the relayed topic.
func (r *Relay) Topic() types.Topic {
	return r.topic
}

// State returns the current state of the relay.
func (r *Relay) State() State {
	return State(r.state.Load())
}

// Run delivers messages until the source is cancelled or ctx is done. It
// returns an error wrapping types.ErrChannelClosed in the first case and
// ctx.Err() in the second.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Debug("relay listening", "topic", r.topic)
	for {
		// a cancelled source wins over pending messages
		select {
		case <-r.source.Cancelled():
			return r.closed()
		default:
		}

		select {
		case <-ctx.Done():
			r.state.Store(int32(Stopped))
			r.logger.Debug("relay stopped", "topic", r.topic)
			return ctx.Err()
		case <-r.source.Cancelled():
			return r.closed()
		case msg := <-r.source.Out():
			r.deliver(msg.Data())
		}
	}
}

func (r *Relay) closed() error {
	r.state.Store(int32(Stopped))
	err := fmt.Errorf("%w: topic %s", types.ErrChannelClosed, r.topic)
	if cause := r.source.Err(); cause != nil {
		err = fmt.Errorf("%w: %v", err, cause)
	}
	r.logger.Error("relay stopped", "topic", r.topic, "error", err)
	return err
}

func (r *Relay) deliver(data interface{}) {
	msg, err := types.ToPublishMessage(data)
	if err != nil {
		r.drop("failed to convert message", err)
		return
	}
	topic, payload, err := Encode(msg)
	if err != nil {
		r.drop("failed to encode message", fmt.Errorf("%w: %v", types.ErrSerialization, err))
		return
	}
	r.notifier.Notify(topic, payload)
	r.metrics.Delivered.With("topic", r.topic.String()).Add(1)
}

func (r *Relay) drop(msg string, err error) {
	r.metrics.Dropped.With("topic", r.topic.String()).Add(1)
	r.logger.Error(msg, "topic", r.topic, "error", err)
}
