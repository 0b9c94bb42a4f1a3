package query

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/store"
	"github.com/rollkit/lightbridge/types"
)

// ClientSource returns an already connected client usable for cfg, or nil.
// Clients it returns are not closed by the Service.
type ClientSource func(cfg config.Config) rpc.NodeClient

// Service answers status and message list queries from the local store and
// the full node. It keeps no state between calls.
type Service struct {
	opener  store.Opener
	connect rpc.Connector
	clients ClientSource
	logger  log.Logger
}

// NewService creates a Service. clients may be nil.
func NewService(opener store.Opener, connect rpc.Connector, clients ClientSource, logger log.Logger) *Service {
	return &Service{
		opener:  opener,
		connect: connect,
		clients: clients,
		logger:  logger,
	}
}

// Status builds a fresh status snapshot.
func (s *Service) Status(ctx context.Context, cfg config.Config) (status types.Status, err error) {
	db, err := s.opener.Open(cfg.AvailPath)
	if err != nil {
		return status, err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	counters, err := store.NewMessageStore(db).Counters(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to read block counters: %w", err)
	}

	node, err := s.connectedNode(ctx, cfg)
	if err != nil {
		return status, err
	}

	status = types.Status{
		Modes:       []string{types.ModeLight},
		GenesisHash: node.GenesisHash,
		Network:     node.Network(),
		Blocks:      counters,
	}
	if cfg.HasAppID() {
		appID := cfg.AppID
		status.Modes = append(status.Modes, types.ModeApp)
		status.AppID = &appID
	}
	return status, nil
}

func (s *Service) connectedNode(ctx context.Context, cfg config.Config) (rpc.Node, error) {
	if s.clients != nil {
		if client := s.clients(cfg); client != nil {
			return client.ConnectedNode(ctx)
		}
	}

	if cfg.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
	}
	client, err := s.connect(ctx, cfg.FullNodeWS, rpc.ExpectedNetworkVersion, s.logger)
	if err != nil {
		return rpc.Node{}, err
	}
	defer client.Close()
	return client.ConnectedNode(ctx)
}

// MessageList returns the stored messages of topic. A topic with nothing
// recorded yet yields the empty list.
func (s *Service) MessageList(ctx context.Context, cfg config.Config, topic types.Topic) (list *types.MessageList, err error) {
	if !topic.Valid() {
		return nil, fmt.Errorf("unknown topic %q", topic)
	}

	db, err := s.opener.Open(cfg.AvailPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	list, err = store.NewMessageStore(db).Messages(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s messages: %w", topic, err)
	}
	if list == nil {
		return types.EmptyMessageList(), nil
	}
	return list, nil
}

// StatusJSON returns the status, or an error envelope, as JSON.
func (s *Service) StatusJSON(ctx context.Context, cfg config.Config) string {
	status, err := s.Status(ctx, cfg)
	if err != nil {
		s.logger.Error("failed to get status", "error", err)
		return types.ErrorJSON(err.Error())
	}
	return types.ToJSON(status)
}

// MessageListJSON returns the message list of topic, or an error envelope,
// as JSON.
func (s *Service) MessageListJSON(ctx context.Context, cfg config.Config, topic types.Topic) string {
	list, err := s.MessageList(ctx, cfg, topic)
	if err != nil {
		s.logger.Error("failed to get message list", "topic", topic, "error", err)
		return types.ErrorJSON(err.Error())
	}
	return types.ToJSON(list)
}
