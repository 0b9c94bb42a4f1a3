package bridge

import (
	"context"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/types"
)

// GetStatusV2 returns the status for the configuration in cfgBuf as JSON.
// The result is always valid JSON, an error envelope on failure.
func (r *Runtime) GetStatusV2(cfgBuf []byte) string {
	cfg, err := config.ParseConfig(cfgBuf)
	if err != nil {
		r.logger.Error("failed to load configuration", "error", err)
		return types.ErrorJSON(types.ErrConfigDecode.Error())
	}
	return r.StatusJSON(r.ctx, cfg)
}

// GetConfidenceMessageList returns the confidence-achieved messages as JSON.
func (r *Runtime) GetConfidenceMessageList(cfgBuf []byte) string {
	return r.messageList(cfgBuf, types.TopicConfidenceAchieved)
}

// GetDataVerifiedMessageList returns the data-verified messages as JSON.
func (r *Runtime) GetDataVerifiedMessageList(cfgBuf []byte) string {
	return r.messageList(cfgBuf, types.TopicDataVerified)
}

// GetHeaderVerifiedMessageList returns the header-verified messages as JSON.
func (r *Runtime) GetHeaderVerifiedMessageList(cfgBuf []byte) string {
	return r.messageList(cfgBuf, types.TopicHeaderVerified)
}

func (r *Runtime) messageList(cfgBuf []byte, topic types.Topic) string {
	cfg, err := config.ParseConfig(cfgBuf)
	if err != nil {
		r.logger.Error("failed to load configuration", "error", err)
		return types.ErrorJSON(types.ErrConfigDecode.Error())
	}
	return r.MessageListJSON(r.ctx, cfg, topic)
}

// StatusJSON returns the status for cfg as JSON.
func (r *Runtime) StatusJSON(ctx context.Context, cfg config.Config) string {
	return r.queries(r.logger.With("module", "query")).StatusJSON(ctx, cfg)
}

// MessageListJSON returns the messages of topic for cfg as JSON.
func (r *Runtime) MessageListJSON(ctx context.Context, cfg config.Config, topic types.Topic) string {
	return r.queries(r.logger.With("module", "query")).MessageListJSON(ctx, cfg, topic)
}
