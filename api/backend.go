package api

import (
	"context"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/query"
	"github.com/rollkit/lightbridge/types"
)

// Backend answers the read queries of the API.
type Backend interface {
	Status(ctx context.Context) (types.Status, error)
	MessageList(ctx context.Context, topic types.Topic) (*types.MessageList, error)
}

type queryBackend struct {
	svc *query.Service
	cfg config.Config
}

// NewBackend binds svc to the configuration of the serving node.
func NewBackend(svc *query.Service, cfg config.Config) Backend {
	return &queryBackend{svc: svc, cfg: cfg.Clone()}
}

func (b *queryBackend) Status(ctx context.Context) (types.Status, error) {
	return b.svc.Status(ctx, b.cfg)
}

func (b *queryBackend) MessageList(ctx context.Context, topic types.Topic) (*types.MessageList, error) {
	return b.svc.MessageList(ctx, b.cfg, topic)
}
