package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"go.uber.org/multierr"

	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/types"
)

// NetworkVersion is the full node version a light client is compatible with.
type NetworkVersion struct {
	// Version is matched as a prefix of the node's system_version.
	Version  string
	SpecName string
}

// ExpectedNetworkVersion is the network version this client is built for.
var ExpectedNetworkVersion = NetworkVersion{
	Version:  "1.6",
	SpecName: "data-avail",
}

// Matches reports whether a node with the given versions is compatible.
func (v NetworkVersion) Matches(systemVersion, specName string) bool {
	return strings.HasPrefix(systemVersion, v.Version) && specName == v.SpecName
}

func (v NetworkVersion) String() string {
	return fmt.Sprintf("%s/%s", v.Version, v.SpecName)
}

// Node identifies the full node a client is connected to.
type Node struct {
	URL           string
	SystemVersion string
	SpecName      string
	SpecVersion   uint32
	GenesisHash   string
}

// Network returns the node identity reported in the status.
func (n Node) Network() string {
	return fmt.Sprintf("%s/%s/%s/%d", n.URL, n.SystemVersion, n.SpecName, n.SpecVersion)
}

// NodeClient is a connection to a full node.
type NodeClient interface {
	// ConnectedNode returns the identity of the node.
	ConnectedNode(ctx context.Context) (Node, error)
	// SubmitData signs data with the app id extension and submits it.
	SubmitData(ctx context.Context, appID uint32, data []byte, signer signature.KeyringPair) (string, error)
	// SubmitExtrinsic submits an already signed, SCALE encoded extrinsic.
	SubmitExtrinsic(ctx context.Context, extrinsic []byte) (string, error)
	// SubscribeFinalizedHeads streams finalized headers until ctx is done.
	// The error channel yields at most one value, after which the header
	// channel is closed.
	SubscribeFinalizedHeads(ctx context.Context) (<-chan types.HeaderEvent, <-chan error, error)
	// Close releases the connection.
	Close()
}

// Connector opens a NodeClient to the first compatible node of urls.
type Connector func(ctx context.Context, urls []string, expected NetworkVersion, logger log.Logger) (NodeClient, error)

var _ Connector = Connect

// versionedClient is a dialed client that already read the node identity.
type versionedClient interface {
	NodeClient
	node() Node
}

type dialFunc func(ctx context.Context, url string) (versionedClient, error)

// Connect dials urls in order and returns the first node whose version
// matches expected.
func Connect(ctx context.Context, urls []string, expected NetworkVersion, logger log.Logger) (NodeClient, error) {
	return connect(ctx, urls, expected, logger, dialSubstrate)
}

func connect(ctx context.Context, urls []string, expected NetworkVersion, logger log.Logger, dial dialFunc) (NodeClient, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no full node address configured", types.ErrConnection)
	}

	var errs error
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		logger.Debug("connecting to full node", "url", url)
		client, err := dialContext(ctx, dial, url)
		if err != nil {
			logger.Error("failed to connect to full node", "url", url, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}

		node := client.node()
		if !expected.Matches(node.SystemVersion, node.SpecName) {
			client.Close()
			err := fmt.Errorf("%s: %w: expected %s, found %s/%s",
				url, errVersionMismatch, expected, node.SystemVersion, node.SpecName)
			logger.Error("full node version mismatch", "url", url, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}

		logger.Info("connected to full node", "network", node.Network())
		return client, nil
	}
	return nil, fmt.Errorf("%w: %v", types.ErrConnection, errs)
}

var errVersionMismatch = errors.New("network version mismatch")

// dialContext dials url, giving up when ctx is done first. A client that
// connects after that is closed as soon as the dial returns.
func dialContext(ctx context.Context, dial dialFunc, url string) (versionedClient, error) {
	type result struct {
		client versionedClient
		err    error
	}
	done := make(chan result, 1)
	go func() {
		client, err := dial(ctx, url)
		done <- result{client: client, err: err}
	}()

	select {
	case res := <-done:
		return res.client, res.err
	case <-ctx.Done():
		go func() {
			if res := <-done; res.client != nil {
				res.client.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
