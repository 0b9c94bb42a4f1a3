package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/relay"
	"github.com/rollkit/lightbridge/types"
)

const wsQueueSize = 64

// wsMessage is the frame pushed for every relayed message.
type wsMessage struct {
	Topic   json.RawMessage `json:"topic"`
	Message json.RawMessage `json:"message"`
}

type wsConn struct {
	conn   *websocket.Conn
	queue  chan []byte
	ctx    context.Context
	logger log.Logger
}

var _ relay.Notifier = &wsConn{}

// Notify queues one frame. It gives up once the connection is gone.
func (wsc *wsConn) Notify(topic, payload []byte) {
	frame, err := json.Marshal(wsMessage{Topic: topic, Message: payload})
	if err != nil {
		wsc.logger.Error("failed to encode websocket frame", "error", err)
		return
	}
	select {
	case wsc.queue <- frame:
	case <-wsc.ctx.Done():
	}
}

func (wsc *wsConn) sendLoop() {
	for msg := range wsc.queue {
		writer, err := wsc.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			wsc.logger.Error("failed to create writer", "error", err)
			continue
		}
		_, err = writer.Write(msg)
		if err != nil {
			wsc.logger.Error("failed to write message", "error", err)
		}
		if err = writer.Close(); err != nil {
			wsc.logger.Error("failed to close writer", "error", err)
		}
	}
}

func parseTopics(raw string) ([]types.Topic, error) {
	if raw == "" {
		return types.Topics, nil
	}
	var topics []types.Topic
	for _, name := range strings.Split(raw, ",") {
		topic, err := types.ParseTopic(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// wsHandler streams the messages of the requested topics (all by default)
// until the client disconnects. Every topic is served by its own relay.
func (h *handler) wsHandler(w http.ResponseWriter, r *http.Request) {
	topics, err := parseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to update to WebSocket connection", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			h.logger.Error("failed to close WebSocket connection", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriber := uuid.NewString()
	ws := &wsConn{
		conn:   conn,
		queue:  make(chan []byte, wsQueueSize),
		ctx:    ctx,
		logger: h.logger,
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		sub, err := h.bus.Subscribe(ctx, subscriber, topic, h.cfg.BroadcastBufferSize)
		if err != nil {
			h.logger.Error("failed to subscribe", "topic", topic, "error", err)
			continue
		}
		rl := relay.New(topic, sub, ws, h.logger, h.metrics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rl.Run(ctx)
		}()
	}
	h.logger.Debug("websocket client subscribed", "subscriber", subscriber, "topics", topics)

	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		ws.sendLoop()
	}()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.logger.Debug("websocket client disconnected", "subscriber", subscriber, "error", err)
			break
		}
	}

	cancel()
	if err := h.bus.UnsubscribeAll(context.Background(), subscriber); err != nil {
		h.logger.Debug("failed to unsubscribe", "subscriber", subscriber, "error", err)
	}
	wg.Wait()
	close(ws.queue)
	<-sendDone
}
