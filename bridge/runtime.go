package bridge

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	tmlog "github.com/tendermint/tendermint/libs/log"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/node"
	"github.com/rollkit/lightbridge/query"
	"github.com/rollkit/lightbridge/relay"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/store"
)

// ErrAlreadyRunning is returned when a light node is started twice.
var ErrAlreadyRunning = errors.New("light node is already running")

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogOutput sets where log records are written. The default is stdout.
func WithLogOutput(w io.Writer) Option {
	return func(r *Runtime) { r.logOutput = w }
}

// WithOpener sets the store opener shared by the node and the queries.
func WithOpener(opener store.Opener) Option {
	return func(r *Runtime) { r.opener = opener }
}

// WithConnector sets how full nodes are dialed.
func WithConnector(connect rpc.Connector) Option {
	return func(r *Runtime) { r.connect = connect }
}

// WithVerifier sets the verifier of the light node.
func WithVerifier(verifier node.Verifier) Option {
	return func(r *Runtime) { r.verifier = verifier }
}

// Runtime is the process-wide handle every entry point runs on. It owns the
// root context, the store opener and the running light node, if any.
type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc

	logOutput io.Writer
	logger    tmlog.Logger
	opener    store.Opener
	connect   rpc.Connector
	verifier  node.Verifier

	mtx       sync.Mutex
	node      *node.LightNode
	runCancel context.CancelFunc
}

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)

// Default returns the process-wide Runtime used by the C entry points.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRuntime = NewRuntime()
	})
	return defaultRuntime
}

// NewRuntime creates a Runtime.
func NewRuntime(options ...Option) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runtime{
		ctx:       ctx,
		cancel:    cancel,
		logOutput: os.Stdout,
		opener:    store.NewBadgerOpener(),
		connect:   rpc.Connect,
	}
	for _, option := range options {
		option(r)
	}
	r.logger = r.newLogger(config.DefaultConfig)
	return r
}

// Close stops the running node and cancels every call in flight.
func (r *Runtime) Close() {
	r.StopLightNode()
	r.cancel()
}

func (r *Runtime) newLogger(cfg config.Config) tmlog.Logger {
	logger, err := log.NewLogger(r.logOutput, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger = tmlog.NewTMLogger(tmlog.NewSyncWriter(r.logOutput))
		logger.Error("invalid log configuration, using defaults", "error", err)
	}
	return logger
}

func (r *Runtime) queries(logger log.Logger) *query.Service {
	return query.NewService(r.opener, r.connect, r.runningClient, logger)
}

// StartLightNode runs a light node with cfg until it stops. Messages are
// delivered to notifier, which may be nil. It returns nil when the node
// exited cleanly and the failure otherwise.
func (r *Runtime) StartLightNode(cfg config.Config, notifier relay.Notifier) error {
	logger := r.newLogger(cfg)
	metrics := metricsFor(cfg.Prometheus)

	r.mtx.Lock()
	if r.node != nil {
		r.mtx.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(r.ctx)
	n := node.NewLightNode(cfg, notifier, logger,
		node.WithOpener(r.opener),
		node.WithConnector(r.connect),
		node.WithVerifier(r.verifier),
		node.WithRelayMetrics(metrics.Relay),
		node.WithMetrics(metrics.Node),
	)
	r.node = n
	r.runCancel = cancel
	r.mtx.Unlock()

	defer func() {
		r.mtx.Lock()
		r.node = nil
		r.runCancel = nil
		r.mtx.Unlock()
		cancel()
	}()

	errCh := make(chan error, 1)
	done := make(chan error, 1)
	go func() {
		done <- n.Run(ctx, errCh)
	}()

	select {
	case err := <-errCh:
		<-done
		return err
	case err := <-done:
		if err != nil {
			return err
		}
		select {
		case err := <-errCh:
			return err
		default:
			return nil
		}
	}
}

// StartLightNodeWithCallbacks decodes cfgBuf and runs a light node until it
// stops, reporting whether it exited cleanly.
func (r *Runtime) StartLightNodeWithCallbacks(cfgBuf []byte, notifier relay.Notifier) bool {
	cfg, err := config.ParseConfig(cfgBuf)
	if err != nil {
		r.logger.Error("failed to load configuration", "error", err)
		return false
	}
	if err := r.StartLightNode(cfg, notifier); err != nil {
		r.logger.Error("failed to start light node", "error", err)
		return false
	}
	return true
}

// StopLightNode stops the running light node. It reports whether a node was
// running.
func (r *Runtime) StopLightNode() bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.runCancel == nil {
		return false
	}
	r.runCancel()
	return true
}

// runningClient returns the client of the running node when it serves the
// same full nodes as cfg.
func (r *Runtime) runningClient(cfg config.Config) rpc.NodeClient {
	r.mtx.Lock()
	n := r.node
	r.mtx.Unlock()
	if n == nil {
		return nil
	}
	if !sameEndpoints(n.Config().FullNodeWS, cfg.FullNodeWS) {
		return nil
	}
	return n.Client()
}

func sameEndpoints(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
