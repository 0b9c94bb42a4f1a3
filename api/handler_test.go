package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tmlog "github.com/tendermint/tendermint/libs/log"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/events"
	"github.com/rollkit/lightbridge/log/test"
	"github.com/rollkit/lightbridge/types"
)

type fakeBackend struct {
	status types.Status
	lists  map[types.Topic]*types.MessageList
	err    error
}

func (b *fakeBackend) Status(ctx context.Context) (types.Status, error) {
	return b.status, b.err
}

func (b *fakeBackend) MessageList(ctx context.Context, topic types.Topic) (*types.MessageList, error) {
	if b.err != nil {
		return nil, b.err
	}
	if list, ok := b.lists[topic]; ok {
		return list, nil
	}
	return types.EmptyMessageList(), nil
}

func newBackend() *fakeBackend {
	appID := uint32(1)
	return &fakeBackend{
		status: types.Status{
			Modes:       []string{types.ModeLight, types.ModeApp},
			AppID:       &appID,
			GenesisHash: "0x01",
			Network:     "ws://127.0.0.1:9944/1.6.3/data-avail/9",
			Blocks:      types.BlockCounters{Latest: 10},
		},
		lists: map[types.Topic]*types.MessageList{
			types.TopicHeaderVerified: {Messages: []json.RawMessage{
				json.RawMessage(`{"number":1}`),
				json.RawMessage(`{"number":2}`),
			}},
		},
	}
}

func newTestServer(t *testing.T, backend Backend, bus *events.Bus) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig.Clone()
	cfg.Prometheus = true
	handler, err := NewHandler(backend, bus, cfg, nil, &test.TestLogger{T: t})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func TestRESTHandlers(t *testing.T) {
	srv := newTestServer(t, newBackend(), nil)

	cases := []struct {
		name         string
		path         string
		expectedCode int
		expectedBody string
	}{
		{"version", "/v2/version", http.StatusOK, `{"version":"` + config.Version + `","network_version":"1.6/data-avail"}`},
		{"status", "/v2/status", http.StatusOK, `{"modes":["light","app"],"app_id":1,"genesis_hash":"0x01","network":"ws://127.0.0.1:9944/1.6.3/data-avail/9","blocks":{"latest":10}}`},
		{"messages", "/v2/messages/header-verified", http.StatusOK, `{"message_list":[{"number":1},{"number":2}]}`},
		{"empty messages", "/v2/messages/data-verified", http.StatusOK, `{"message_list":[]}`},
		{"unknown topic", "/v2/messages/blocks", http.StatusBadRequest, `{"message":"unknown topic: \"blocks\""}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, body := get(t, srv.URL+c.path)
			assert.Equal(t, c.expectedCode, code)
			assert.JSONEq(t, c.expectedBody, string(body))
		})
	}
}

func TestRESTBackendFailure(t *testing.T) {
	backend := newBackend()
	backend.err = errors.New("store is locked")
	srv := newTestServer(t, backend, nil)

	for _, path := range []string{"/v2/status", "/v2/messages/confidence-achieved"} {
		code, body := get(t, srv.URL+path)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.JSONEq(t, `{"message":"store is locked"}`, string(body))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, newBackend(), nil)
	code, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestJSONRPC(t *testing.T) {
	srv := newTestServer(t, newBackend(), nil)

	cases := []struct {
		name    string
		request string
		check   func(t *testing.T, result json.RawMessage, rpcErr json.RawMessage)
	}{
		{
			name:    "status",
			request: `{"jsonrpc":"2.0","method":"bridge.Status","params":{},"id":1}`,
			check: func(t *testing.T, result json.RawMessage, rpcErr json.RawMessage) {
				var status types.Status
				require.NoError(t, json.Unmarshal(result, &status))
				assert.Equal(t, "0x01", status.GenesisHash)
			},
		},
		{
			name:    "message list",
			request: `{"jsonrpc":"2.0","method":"bridge.MessageList","params":{"topic":"header-verified"},"id":2}`,
			check: func(t *testing.T, result json.RawMessage, rpcErr json.RawMessage) {
				assert.JSONEq(t, `{"message_list":[{"number":1},{"number":2}]}`, string(result))
			},
		},
		{
			name:    "bad topic",
			request: `{"jsonrpc":"2.0","method":"bridge.MessageList","params":{"topic":"nope"},"id":3}`,
			check: func(t *testing.T, result json.RawMessage, rpcErr json.RawMessage) {
				assert.Empty(t, result)
				assert.NotEmpty(t, rpcErr)
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/rpc", "application/json", strings.NewReader(c.request))
			require.NoError(t, err)
			defer resp.Body.Close()

			buf := new(bytes.Buffer)
			_, err = buf.ReadFrom(resp.Body)
			require.NoError(t, err)

			var out struct {
				Result json.RawMessage `json:"result"`
				Error  json.RawMessage `json:"error"`
			}
			if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
				out.Error = json.RawMessage(buf.Bytes())
			}
			c.check(t, out.Result, out.Error)
		})
	}
}

func TestWebsocketStream(t *testing.T) {
	bus := events.NewBus(tmlog.TestingLogger())
	require.NoError(t, bus.Start())
	defer func() { _ = bus.Stop() }()

	srv := newTestServer(t, newBackend(), bus)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v2/ws?topics=header-verified,confidence-achieved"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return bus.NumClients() == 1 }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	c := 87.5
	require.NoError(t, bus.PublishEvent(ctx, types.HeaderEvent{Number: 5, Hash: "0x05"}))
	require.NoError(t, bus.PublishEvent(ctx, types.AppDataVerified{Number: 5, Extrinsics: [][]byte{}}))
	require.NoError(t, bus.PublishEvent(ctx, types.BlockVerified{Number: 5, Confidence: &c}))

	received := map[string]json.RawMessage{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for len(received) < 2 {
		var frame struct {
			Topic   string          `json:"topic"`
			Message json.RawMessage `json:"message"`
		}
		require.NoError(t, conn.ReadJSON(&frame))
		received[frame.Topic] = frame.Message
	}
	assert.Contains(t, string(received["header-verified"]), `"hash":"0x05"`)
	assert.JSONEq(t, `{"block_number":5,"confidence":87.5}`, string(received["confidence-achieved"]))
	assert.NotContains(t, received, "data-verified")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return bus.NumClients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebsocketUnknownTopic(t *testing.T) {
	bus := events.NewBus(tmlog.TestingLogger())
	require.NoError(t, bus.Start())
	defer func() { _ = bus.Stop() }()

	srv := newTestServer(t, newBackend(), bus)
	code, body := get(t, srv.URL+"/v2/ws?topics=unknown")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "unknown topic")
}

func TestServerDisabled(t *testing.T) {
	cfg := config.DefaultConfig.Clone()
	cfg.HTTPServerPort = 0
	srv := NewServer(cfg, newBackend(), nil, nil, tmlog.TestingLogger())
	require.NoError(t, srv.Start())
	assert.Nil(t, srv.Addr())
	require.NoError(t, srv.Stop())
}
