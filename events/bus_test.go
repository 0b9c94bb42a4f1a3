package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/pubsub"

	"github.com/rollkit/lightbridge/types"
)

func startBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewBus(log.TestingLogger())
	require.NoError(t, bus.Start())
	t.Cleanup(func() {
		if bus.IsRunning() {
			_ = bus.Stop()
		}
	})
	return bus
}

func receive(t *testing.T, sub *pubsub.Subscription) interface{} {
	t.Helper()
	select {
	case msg := <-sub.Out():
		return msg.Data()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestBusRoutesByTopic(t *testing.T) {
	ctx := context.Background()
	bus := startBus(t)

	headers, err := bus.Subscribe(ctx, "test", types.TopicHeaderVerified, 10)
	require.NoError(t, err)
	confidence, err := bus.Subscribe(ctx, "test", types.TopicConfidenceAchieved, 10)
	require.NoError(t, err)

	c := 99.5
	require.NoError(t, bus.PublishEvent(ctx, types.HeaderEvent{Number: 1, Hash: "0x01"}))
	require.NoError(t, bus.PublishEvent(ctx, types.BlockVerified{Number: 1, Confidence: &c}))
	require.NoError(t, bus.PublishEvent(ctx, types.HeaderEvent{Number: 2, Hash: "0x02"}))

	assert.Equal(t, types.HeaderEvent{Number: 1, Hash: "0x01"}, receive(t, headers))
	assert.Equal(t, types.HeaderEvent{Number: 2, Hash: "0x02"}, receive(t, headers))
	assert.Equal(t, types.BlockVerified{Number: 1, Confidence: &c}, receive(t, confidence))
	assert.Equal(t, 1, bus.NumClients())
}

func TestBusSubscribeUnknownTopic(t *testing.T) {
	bus := startBus(t)
	_, err := bus.Subscribe(context.Background(), "test", types.Topic("unknown"), 1)
	assert.Error(t, err)
}

func TestBusLaggingSubscriberIsCancelled(t *testing.T) {
	ctx := context.Background()
	bus := startBus(t)

	sub, err := bus.Subscribe(ctx, "slow", types.TopicHeaderVerified, 1)
	require.NoError(t, err)

	for i := uint32(0); i < 3; i++ {
		require.NoError(t, bus.Publish(ctx, types.TopicHeaderVerified, i))
	}

	select {
	case <-sub.Cancelled():
		assert.Equal(t, pubsub.ErrOutOfCapacity, sub.Err())
	case <-time.After(time.Second):
		t.Fatal("lagging subscription was not cancelled")
	}
}

func TestBusStopCancelsSubscriptions(t *testing.T) {
	ctx := context.Background()
	bus := startBus(t)

	sub, err := bus.Subscribe(ctx, "test", types.TopicDataVerified, 1)
	require.NoError(t, err)
	require.NoError(t, bus.Stop())

	select {
	case <-sub.Cancelled():
	case <-time.After(time.Second):
		t.Fatal("subscription was not cancelled on stop")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := startBus(t)

	sub, err := bus.Subscribe(ctx, "test", types.TopicDataVerified, 1)
	require.NoError(t, err)
	require.NoError(t, bus.Unsubscribe(ctx, "test", types.TopicDataVerified))

	select {
	case <-sub.Cancelled():
		assert.Equal(t, pubsub.ErrUnsubscribed, sub.Err())
	case <-time.After(time.Second):
		t.Fatal("subscription was not cancelled")
	}
}
