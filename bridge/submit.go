package bridge

import (
	"context"
	"errors"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/transactions"
	"github.com/rollkit/lightbridge/types"
)

// Submit signs and submits tx with a single attempt. The key is parsed
// before anything is opened; malformed keys never cause network I/O.
func (r *Runtime) Submit(ctx context.Context, cfg config.Config, appID uint32, tx types.Transaction, secret string) types.TransactionResult {
	key, err := transactions.ParseSecretKey(secret)
	if err != nil {
		r.logger.Error("failed to parse secret key", "error", err)
		return types.ErrorResult(types.ErrKeyParse.Error())
	}
	return r.submit(ctx, cfg, appID, tx, key)
}

// SubmitTransaction is Submit with the result encoded for the boundary: the
// transaction hash, or an error envelope.
func (r *Runtime) SubmitTransaction(ctx context.Context, cfg config.Config, appID uint32, tx types.Transaction, secret string) string {
	return r.Submit(ctx, cfg, appID, tx, secret).Encode()
}

// SubmitTransactionRaw decodes the boundary buffers and submits the
// transaction on the runtime context.
func (r *Runtime) SubmitTransactionRaw(keyBuf []byte, appID uint32, cfgBuf []byte, txBuf []byte) string {
	key, err := transactions.ParseSecretKey(string(keyBuf))
	if err != nil {
		r.logger.Error("failed to parse secret key", "error", err)
		return types.ErrorResult(types.ErrKeyParse.Error()).Encode()
	}
	cfg, err := config.ParseConfig(cfgBuf)
	if err != nil {
		r.logger.Error("failed to load configuration", "error", err)
		return types.ErrorResult(types.ErrConfigDecode.Error()).Encode()
	}
	tx, err := types.DecodeTransaction(txBuf)
	if err != nil {
		r.logger.Error("failed to decode transaction", "error", err)
		return types.ErrorResult(err.Error()).Encode()
	}
	return r.submit(r.ctx, cfg, appID, tx, key).Encode()
}

func (r *Runtime) submit(ctx context.Context, cfg config.Config, appID uint32, tx types.Transaction, key transactions.SecretKey) types.TransactionResult {
	signer, err := transactions.NewSigner(key)
	if err != nil {
		return types.ErrorResult(types.ErrKeyParse.Error())
	}

	db, err := r.opener.Open(cfg.AvailPath)
	if err != nil {
		r.logger.Error("failed to open store", "error", err)
		return types.ErrorResult(err.Error())
	}
	defer func() {
		if err := db.Close(); err != nil {
			r.logger.Error("failed to close store", "error", err)
		}
	}()

	client, release, err := r.submissionClient(ctx, cfg)
	if err != nil {
		r.logger.Error("failed to connect to full node", "error", err)
		return types.ErrorResult(err.Error())
	}
	defer release()

	metrics := metricsFor(cfg.Prometheus)
	submitter := transactions.NewSubmitter(client, appID, signer, r.logger.With("module", "transactions"), metrics.Transactions)
	resp, err := submitter.Submit(ctx, tx)
	if err != nil {
		return types.ErrorResult(causeOf(err).Error())
	}
	return types.HashResult(resp.Hash)
}

// submissionClient reuses the running node's client when it serves cfg,
// and dials a short-lived one otherwise.
func (r *Runtime) submissionClient(ctx context.Context, cfg config.Config) (rpc.NodeClient, func(), error) {
	if client := r.runningClient(cfg); client != nil {
		return client, func() {}, nil
	}

	if cfg.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
	}
	client, err := r.connect(ctx, cfg.FullNodeWS, rpc.ExpectedNetworkVersion, r.logger.With("module", "rpc"))
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// causeOf returns the root cause of a submit error, the error itself
// otherwise.
func causeOf(err error) error {
	var submitErr *types.Error
	if errors.As(err, &submitErr) && submitErr.Cause != nil {
		return types.RootCause(submitErr.Cause)
	}
	return err
}
