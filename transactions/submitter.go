package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/types"
)

const (
	kindData      = "data"
	kindExtrinsic = "extrinsic"
)

var errNoSigner = errors.New("data submission requires a signer")

// Submitter submits one transaction at a time through a full node client.
// Every call is a single attempt; retries are up to the caller.
type Submitter struct {
	client  rpc.NodeClient
	appID   uint32
	signer  *Signer
	logger  log.Logger
	metrics *Metrics
}

// NewSubmitter creates a Submitter. signer may be nil when only extrinsics
// are submitted.
func NewSubmitter(client rpc.NodeClient, appID uint32, signer *Signer, logger log.Logger, metrics *Metrics) *Submitter {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Submitter{
		client:  client,
		appID:   appID,
		signer:  signer,
		logger:  logger,
		metrics: metrics,
	}
}

// Submit sends tx to the full node. Failures are logged with their cause and
// returned as *types.Error, matching types.ErrSubmission.
func (s *Submitter) Submit(ctx context.Context, tx types.Transaction) (types.SubmitResponse, error) {
	if err := tx.Validate(); err != nil {
		return types.SubmitResponse{}, s.fail("unknown", err)
	}

	kind := kindData
	if len(tx.Extrinsic) > 0 {
		kind = kindExtrinsic
	}
	s.metrics.Submissions.With("kind", kind).Add(1)

	start := time.Now()
	hash, err := s.submit(ctx, kind, tx)
	s.metrics.SubmitTime.Observe(time.Since(start).Seconds())
	if err != nil {
		return types.SubmitResponse{}, s.fail(kind, err)
	}

	s.logger.Info("transaction submitted", "kind", kind, "app_id", s.appID, "hash", hash)
	return types.SubmitResponse{Hash: hash}, nil
}

func (s *Submitter) submit(ctx context.Context, kind string, tx types.Transaction) (string, error) {
	if kind == kindExtrinsic {
		return s.client.SubmitExtrinsic(ctx, tx.Extrinsic)
	}
	if s.signer == nil {
		return "", errNoSigner
	}
	return s.client.SubmitData(ctx, s.appID, tx.Data, s.signer.KeyringPair())
}

func (s *Submitter) fail(kind string, cause error) error {
	s.metrics.Failures.With("kind", kind).Add(1)
	err := types.NewSubmitError(cause)
	s.logger.Error("failed to submit transaction", "kind", kind, "app_id", s.appID, "error", err)
	return err
}
