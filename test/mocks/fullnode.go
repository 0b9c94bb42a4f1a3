package mocks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"

	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/types"
)

// ErrRejected is returned by FullNode.SubmitData and SubmitExtrinsic when
// Reject is set.
var ErrRejected = errors.New("1010: Invalid Transaction: Transaction has a bad signature")

// FullNode is an in-memory full node client. Heads pushed with PushHead are
// streamed to the subscriber of SubscribeFinalizedHeads.
type FullNode struct {
	Node rpc.Node
	// Reject makes every submission fail.
	Reject bool

	mtx       sync.Mutex
	submitted [][]byte
	closed    bool
	heads     chan types.HeaderEvent
	errs      chan error
}

var _ rpc.NodeClient = &FullNode{}

// NewFullNode returns a FullNode reporting the mock identity for url.
func NewFullNode(url string) *FullNode {
	return &FullNode{
		Node: rpc.Node{
			URL:           url,
			SystemVersion: MockSystemVersion,
			SpecName:      MockSpecName,
			SpecVersion:   MockSpecVersion,
			GenesisHash:   MockGenesisHash,
		},
		heads: make(chan types.HeaderEvent, 16),
		errs:  make(chan error, 1),
	}
}

func (n *FullNode) ConnectedNode(ctx context.Context) (rpc.Node, error) {
	return n.Node, ctx.Err()
}

// SubmitData returns the hex encoded sha256 of data as the transaction hash.
func (n *FullNode) SubmitData(ctx context.Context, appID uint32, data []byte, signer signature.KeyringPair) (string, error) {
	if len(signer.PublicKey) == 0 {
		return "", errors.New("missing signer")
	}
	return n.submit(data)
}

// SubmitExtrinsic returns the hex encoded sha256 of extrinsic as the
// transaction hash.
func (n *FullNode) SubmitExtrinsic(ctx context.Context, extrinsic []byte) (string, error) {
	return n.submit(extrinsic)
}

func (n *FullNode) submit(payload []byte) (string, error) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if n.Reject {
		return "", ErrRejected
	}
	n.submitted = append(n.submitted, payload)
	hash := sha256.Sum256(payload)
	return "0x" + hex.EncodeToString(hash[:]), nil
}

// Submitted returns the accepted payloads.
func (n *FullNode) Submitted() [][]byte {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return append([][]byte(nil), n.submitted...)
}

func (n *FullNode) SubscribeFinalizedHeads(ctx context.Context) (<-chan types.HeaderEvent, <-chan error, error) {
	out := make(chan types.HeaderEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case head := <-n.heads:
				select {
				case out <- head:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, n.errs, nil
}

// PushHead emits a finalized head.
func (n *FullNode) PushHead(head types.HeaderEvent) {
	n.heads <- head
}

// Fail makes the head subscription fail with err.
func (n *FullNode) Fail(err error) {
	n.errs <- err
}

func (n *FullNode) Close() {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.closed = true
}

// Closed reports whether Close was called.
func (n *FullNode) Closed() bool {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.closed
}

// Connector counts connection attempts and hands out FullNode clients.
type Connector struct {
	// Err fails every connection attempt when set.
	Err error

	mtx      sync.Mutex
	attempts int
	clients  []*FullNode
}

// Connect implements rpc.Connector.
func (c *Connector) Connect(ctx context.Context, urls []string, expected rpc.NetworkVersion, logger log.Logger) (rpc.NodeClient, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.attempts++
	if c.Err != nil {
		return nil, c.Err
	}
	if len(urls) == 0 {
		return nil, types.ErrConnection
	}
	client := NewFullNode(urls[0])
	c.clients = append(c.clients, client)
	return client, nil
}

// Attempts returns the number of Connect calls.
func (c *Connector) Attempts() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.attempts
}

// Clients returns the clients handed out so far.
func (c *Connector) Clients() []*FullNode {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return append([]*FullNode(nil), c.clients...)
}

// Last returns the most recent client, or nil.
func (c *Connector) Last() *FullNode {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if len(c.clients) == 0 {
		return nil
	}
	return c.clients[len(c.clients)-1]
}
