package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/log/test"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/store"
	"github.com/rollkit/lightbridge/test/mocks"
	"github.com/rollkit/lightbridge/types"
)

type failingOpener struct{}

func (failingOpener) Open(path string) (*store.Handle, error) {
	return nil, errors.New("resource temporarily unavailable")
}

func testConfig() config.Config {
	cfg := config.DefaultConfig.Clone()
	cfg.AvailPath = "/tmp/avail"
	cfg.FullNodeWS = []string{mocks.MockFullNodeWS}
	return cfg
}

func newTestService(t *testing.T) (*Service, *store.SharedOpener, *mocks.Connector) {
	t.Helper()
	opener := store.NewInMemoryOpener()
	connector := &mocks.Connector{}
	return NewService(opener, connector.Connect, nil, &test.TestLogger{T: t}), opener, connector
}

func TestMessageListEmpty(t *testing.T) {
	svc, opener, _ := newTestService(t)
	cfg := testConfig()

	for _, topic := range types.Topics {
		t.Run(topic.String(), func(t *testing.T) {
			assert.Equal(t, `{"message_list":[]}`, svc.MessageListJSON(context.Background(), cfg, topic))
		})
	}
	assert.Zero(t, opener.Refs(cfg.AvailPath))
}

func TestMessageListRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, opener, _ := newTestService(t)
	cfg := testConfig()

	db, err := opener.Open(cfg.AvailPath)
	require.NoError(t, err)
	ms := store.NewMessageStore(db)
	stored := []string{
		`{"block_number":1,"confidence":50}`,
		`{"block_number":2,"confidence":75}`,
	}
	for _, m := range stored {
		require.NoError(t, ms.AppendMessage(ctx, types.TopicConfidenceAchieved, []byte(m)))
	}

	out := svc.MessageListJSON(ctx, cfg, types.TopicConfidenceAchieved)
	var list types.MessageList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Messages, len(stored))
	for i, m := range stored {
		assert.JSONEq(t, m, string(list.Messages[i]))
	}

	// other topics are untouched
	assert.Equal(t, `{"message_list":[]}`, svc.MessageListJSON(ctx, cfg, types.TopicDataVerified))

	// the writer's handle is the only one left
	assert.Equal(t, 1, opener.Refs(cfg.AvailPath))
	require.NoError(t, db.Close())
}

func TestMessageListStoreFailure(t *testing.T) {
	svc := NewService(failingOpener{}, (&mocks.Connector{}).Connect, nil, &test.MockLogger{})

	out := svc.MessageListJSON(context.Background(), testConfig(), types.TopicHeaderVerified)
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, resp.Message, "resource temporarily unavailable")

	_, err := svc.MessageList(context.Background(), testConfig(), types.Topic("bogus"))
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	svc, opener, connector := newTestService(t)
	cfg := testConfig()
	cfg.AppID = 3

	db, err := opener.Open(cfg.AvailPath)
	require.NoError(t, err)
	ms := store.NewMessageStore(db)
	require.NoError(t, ms.SetLatestHeader(ctx, 42))
	require.NoError(t, ms.MarkAchieved(ctx, 40))
	require.NoError(t, ms.MarkAchieved(ctx, 41))
	require.NoError(t, db.Close())

	status, err := svc.Status(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{types.ModeLight, types.ModeApp}, status.Modes)
	require.NotNil(t, status.AppID)
	assert.Equal(t, uint32(3), *status.AppID)
	assert.Equal(t, mocks.MockGenesisHash, status.GenesisHash)
	assert.Equal(t, "ws://127.0.0.1:9944/1.6.3-d7aa1b8/data-avail/9", status.Network)
	assert.Equal(t, uint32(42), status.Blocks.Latest)
	assert.Equal(t, &types.BlockRange{First: 40, Last: 41}, status.Blocks.Available)

	assert.Equal(t, 1, connector.Attempts())
	assert.True(t, connector.Last().Closed(), "transient connection must be closed")
}

func TestStatusIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	cfg := testConfig()

	first := svc.StatusJSON(context.Background(), cfg)
	second := svc.StatusJSON(context.Background(), cfg)
	assert.JSONEq(t, first, second)

	var status types.Status
	require.NoError(t, json.Unmarshal([]byte(first), &status))
	assert.Equal(t, []string{types.ModeLight}, status.Modes)
	assert.Nil(t, status.AppID)
	assert.Nil(t, status.Blocks.Available)
	assert.Equal(t, first, types.ToJSON(status))
}

func TestStatusUsesConnectedClient(t *testing.T) {
	connected := mocks.NewFullNode("ws://running:9944")
	connector := &mocks.Connector{}
	svc := NewService(store.NewInMemoryOpener(), connector.Connect, func(config.Config) rpc.NodeClient {
		return connected
	}, &test.MockLogger{})

	status, err := svc.Status(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, connected.Node.Network(), status.Network)
	assert.Zero(t, connector.Attempts())
	assert.False(t, connected.Closed())
}

func TestStatusConnectionFailure(t *testing.T) {
	connector := &mocks.Connector{Err: types.ErrConnection}
	opener := store.NewInMemoryOpener()
	logger := &test.MockLogger{}
	svc := NewService(opener, connector.Connect, nil, logger)
	cfg := testConfig()

	out := svc.StatusJSON(context.Background(), cfg)
	assert.JSONEq(t, `{"message":"connection error"}`, out)
	assert.Len(t, logger.Errors(), 1)
	assert.Zero(t, opener.Refs(cfg.AvailPath))
}
