package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/service"
	"go.uber.org/multierr"

	"github.com/rollkit/lightbridge/api"
	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/events"
	"github.com/rollkit/lightbridge/query"
	"github.com/rollkit/lightbridge/relay"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/store"
	"github.com/rollkit/lightbridge/types"
)

// relaySubscriber is the bus client id of the notifier relays.
const relaySubscriber = "light-node-relay"

// ErrHeadStreamClosed is reported when the full node stops streaming heads.
var ErrHeadStreamClosed = errors.New("finalized head stream closed")

// Verifier turns a finalized header into verification events. Sampling is
// done by the implementation; a nil Verifier only produces header events.
type Verifier interface {
	Verify(ctx context.Context, header types.HeaderEvent) ([]types.Publishable, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, header types.HeaderEvent) ([]types.Publishable, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, header types.HeaderEvent) ([]types.Publishable, error) {
	return f(ctx, header)
}

// Option configures a LightNode.
type Option func(*LightNode)

// WithOpener sets the store opener. The default opens badger stores.
func WithOpener(opener store.Opener) Option {
	return func(n *LightNode) { n.opener = opener }
}

// WithConnector sets how the full node is dialed. The default is rpc.Connect.
func WithConnector(connect rpc.Connector) Option {
	return func(n *LightNode) { n.connect = connect }
}

// WithVerifier sets the verifier of finalized headers.
func WithVerifier(verifier Verifier) Option {
	return func(n *LightNode) { n.verifier = verifier }
}

// WithRelayMetrics sets the metrics of the notifier and websocket relays.
func WithRelayMetrics(metrics *relay.Metrics) Option {
	return func(n *LightNode) { n.relayMetrics = metrics }
}

// WithMetrics sets the node metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(n *LightNode) { n.metrics = metrics }
}

// LightNode follows the finalized chain of a full node, records verification
// messages and broadcasts them to the relays.
type LightNode struct {
	service.BaseService

	cfg          config.Config
	notifier     relay.Notifier
	opener       store.Opener
	connect      rpc.Connector
	verifier     Verifier
	relayMetrics *relay.Metrics
	metrics      *Metrics

	db       *store.Handle
	messages *store.MessageStore
	bus      *events.Bus
	api      *api.Server

	clientMtx sync.RWMutex
	client    rpc.NodeClient

	fatal  chan error
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewLightNode creates a light node. notifier receives every verification
// message and may be nil.
func NewLightNode(cfg config.Config, notifier relay.Notifier, logger log.Logger, options ...Option) *LightNode {
	ctx, cancel := context.WithCancel(context.Background())
	n := &LightNode{
		cfg:          cfg.Clone(),
		notifier:     notifier,
		opener:       store.NewBadgerOpener(),
		connect:      rpc.Connect,
		relayMetrics: relay.NopMetrics(),
		metrics:      NopMetrics(),
		fatal:        make(chan error, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, option := range options {
		option(n)
	}
	n.BaseService = *service.NewBaseService(logger, "LightNode", n)
	return n
}

// Config returns the configuration of the node.
func (n *LightNode) Config() config.Config {
	return n.cfg.Clone()
}

// Client returns the full node client, nil until the node is connected.
func (n *LightNode) Client() rpc.NodeClient {
	n.clientMtx.RLock()
	defer n.clientMtx.RUnlock()
	return n.client
}

// EventBus returns the bus verification messages are broadcast on.
func (n *LightNode) EventBus() *events.Bus {
	return n.bus
}

// APIAddr returns the address the HTTP API listens on, or "".
func (n *LightNode) APIAddr() string {
	if n.api == nil || n.api.Addr() == nil {
		return ""
	}
	return n.api.Addr().String()
}

// Fatal yields the error that stopped the node from working, at most once.
func (n *LightNode) Fatal() <-chan error {
	return n.fatal
}

// OnStart is a part of Service interface.
func (n *LightNode) OnStart() (err error) {
	defer func() {
		if err != nil {
			n.cleanup()
		}
	}()

	n.db, err = n.opener.Open(n.cfg.AvailPath)
	if err != nil {
		return err
	}
	n.messages = store.NewMessageStore(n.db)

	n.bus = events.NewBus(n.Logger.With("module", "events"))
	if err = n.bus.Start(); err != nil {
		return fmt.Errorf("error while starting event bus: %w", err)
	}

	if n.notifier != nil {
		if err = n.startRelays(); err != nil {
			return err
		}
	}

	client, err := n.dial()
	if err != nil {
		return err
	}
	n.setClient(client)

	heads, errs, err := client.SubscribeFinalizedHeads(n.ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to subscribe to finalized heads: %v", types.ErrConnection, err)
	}
	n.wg.Add(1)
	go n.followHeads(heads, errs)

	if n.cfg.HTTPListenAddress() != "" {
		svc := query.NewService(n.opener, n.connect, n.connectedClient, n.Logger.With("module", "query"))
		n.api = api.NewServer(n.cfg, api.NewBackend(svc, n.cfg), n.bus, n.relayMetrics, n.Logger.With("module", "api"))
		if err = n.api.Start(); err != nil {
			return fmt.Errorf("error while starting API server: %w", err)
		}
	}
	return nil
}

// OnStop is a part of Service interface.
func (n *LightNode) OnStop() {
	n.cleanup()
}

func (n *LightNode) cleanup() {
	n.cancel()

	var err error
	if n.api != nil && n.api.IsRunning() {
		err = multierr.Append(err, n.api.Stop())
	}
	if n.bus != nil && n.bus.IsRunning() {
		err = multierr.Append(err, n.bus.Stop())
	}
	n.wg.Wait()
	if client := n.Client(); client != nil {
		client.Close()
		n.setClient(nil)
	}
	if n.db != nil {
		err = multierr.Append(err, n.db.Close())
	}
	if err != nil {
		n.Logger.Error("errors while stopping light node", "error", err)
	}
}

// Run starts the node and blocks until ctx is done or the node fails. A
// failure is sent on errCh without blocking; errCh should have capacity 1.
// Run returns the start error, nil otherwise.
func (n *LightNode) Run(ctx context.Context, errCh chan<- error) error {
	if err := n.Start(); err != nil {
		report(errCh, err)
		return err
	}

	select {
	case <-ctx.Done():
	case <-n.Quit():
	case err := <-n.fatal:
		n.Logger.Error("light node failed", "error", err)
		report(errCh, err)
	}

	if n.IsRunning() {
		if err := n.Stop(); err != nil {
			n.Logger.Error("error while stopping light node", "error", err)
		}
	}
	return nil
}

func report(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

func (n *LightNode) dial() (rpc.NodeClient, error) {
	ctx := n.ctx
	if n.cfg.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.ConnectionTimeout)
		defer cancel()
	}
	return n.connect(ctx, n.cfg.FullNodeWS, rpc.ExpectedNetworkVersion, n.Logger.With("module", "rpc"))
}

func (n *LightNode) setClient(client rpc.NodeClient) {
	n.clientMtx.Lock()
	defer n.clientMtx.Unlock()
	n.client = client
}

func (n *LightNode) connectedClient(config.Config) rpc.NodeClient {
	return n.Client()
}

func (n *LightNode) startRelays() error {
	for _, topic := range types.Topics {
		sub, err := n.bus.Subscribe(n.ctx, relaySubscriber, topic, n.cfg.BroadcastBufferSize)
		if err != nil {
			return fmt.Errorf("failed to subscribe relay for %s: %w", topic, err)
		}
		r := relay.New(topic, sub, n.notifier, n.Logger.With("module", "relay"), n.relayMetrics)
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			_ = r.Run(n.ctx)
		}()
	}
	return nil
}

func (n *LightNode) followHeads(heads <-chan types.HeaderEvent, errs <-chan error) {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			return
		case err := <-errs:
			n.fail(fmt.Errorf("%w: %v", ErrHeadStreamClosed, err))
			return
		case head, ok := <-heads:
			if !ok {
				if n.ctx.Err() == nil {
					n.fail(ErrHeadStreamClosed)
				}
				return
			}
			n.handleHead(head)
		}
	}
}

func (n *LightNode) handleHead(head types.HeaderEvent) {
	n.Logger.Debug("received finalized header", "number", head.Number, "hash", head.Hash)
	n.metrics.Height.Set(float64(head.Number))

	n.publish(head)
	if err := n.messages.SetLatestHeader(n.ctx, head.Number); err != nil {
		n.Logger.Error("failed to store latest header", "number", head.Number, "error", err)
	}

	if n.verifier == nil {
		return
	}
	verified, err := n.verifier.Verify(n.ctx, head)
	if err != nil {
		n.Logger.Error("failed to verify block", "number", head.Number, "error", err)
		return
	}
	for _, event := range verified {
		n.publish(event)
		if bv, ok := event.(types.BlockVerified); ok && bv.Confidence != nil {
			if err := n.messages.MarkAchieved(n.ctx, bv.Number); err != nil {
				n.Logger.Error("failed to store achieved block", "number", bv.Number, "error", err)
			}
		}
	}
}

// publish records event and broadcasts it. An event that cannot be encoded
// is still broadcast; relays log and drop it.
func (n *LightNode) publish(event types.Publishable) {
	if err := n.record(event); err != nil {
		n.Logger.Error("failed to record message", "topic", event.Topic(), "error", err)
	}
	if err := n.bus.PublishEvent(n.ctx, event); err != nil {
		n.Logger.Error("failed to publish message", "topic", event.Topic(), "error", err)
		return
	}
	n.metrics.Messages.With("topic", event.Topic().String()).Add(1)
}

func (n *LightNode) record(event types.Publishable) error {
	msg, err := event.ToPublishMessage()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrSerialization, err)
	}
	payload, err := json.Marshal(msg.Message)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrSerialization, err)
	}
	return n.messages.AppendMessage(n.ctx, msg.Topic, payload)
}

func (n *LightNode) fail(err error) {
	select {
	case n.fatal <- err:
	default:
	}
}
