package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	gstypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/rollkit/lightbridge/types"
)

var errAccountNotFound = errors.New("signer account not found")

// substrateClient talks to an Avail full node over its websocket JSON-RPC.
type substrateClient struct {
	api      *gsrpc.SubstrateAPI
	identity Node
	genesis  gstypes.Hash
}

var _ versionedClient = &substrateClient{}

// dialSubstrate blocks until the node answers; connect bounds it with the
// caller's context.
func dialSubstrate(_ context.Context, url string) (versionedClient, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, err
	}
	client := &substrateClient{api: api}
	if err := client.readIdentity(url); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *substrateClient) readIdentity(url string) error {
	version, err := c.api.RPC.System.Version()
	if err != nil {
		return fmt.Errorf("system_version: %w", err)
	}
	rv, err := c.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return fmt.Errorf("state_getRuntimeVersion: %w", err)
	}
	genesis, err := c.api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return fmt.Errorf("chain_getBlockHash: %w", err)
	}
	c.genesis = genesis
	c.identity = Node{
		URL:           url,
		SystemVersion: string(version),
		SpecName:      rv.SpecName,
		SpecVersion:   uint32(rv.SpecVersion),
		GenesisHash:   genesis.Hex(),
	}
	return nil
}

func (c *substrateClient) node() Node {
	return c.identity
}

func (c *substrateClient) ConnectedNode(ctx context.Context) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, err
	}
	return c.identity, nil
}

// SubmitData submits data through DataAvailability.submit_data, signed by
// signer with the app id signed extension.
func (c *substrateClient) SubmitData(ctx context.Context, appID uint32, data []byte, signer signature.KeyringPair) (string, error) {
	var hash gstypes.Hash
	err := withContext(ctx, func() error {
		meta, err := c.api.RPC.State.GetMetadataLatest()
		if err != nil {
			return err
		}

		call, err := gstypes.NewCall(meta, "DataAvailability.submit_data", gstypes.NewBytes(data))
		if err != nil {
			return err
		}

		// Create the extrinsic
		ext := gstypes.NewExtrinsic(call)

		rv, err := c.api.RPC.State.GetRuntimeVersionLatest()
		if err != nil {
			return err
		}

		key, err := gstypes.CreateStorageKey(meta, "System", "Account", signer.PublicKey)
		if err != nil {
			return err
		}

		var accountInfo gstypes.AccountInfo
		ok, err := c.api.RPC.State.GetStorageLatest(key, &accountInfo)
		if err != nil {
			return err
		}
		if !ok {
			return errAccountNotFound
		}

		o := gstypes.SignatureOptions{
			BlockHash:          c.genesis,
			Era:                gstypes.ExtrinsicEra{IsMortalEra: false},
			GenesisHash:        c.genesis,
			Nonce:              gstypes.NewUCompactFromUInt(uint64(accountInfo.Nonce)),
			SpecVersion:        rv.SpecVersion,
			Tip:                gstypes.NewUCompactFromUInt(0),
			AppID:              gstypes.NewUCompactFromUInt(uint64(appID)),
			TransactionVersion: rv.TransactionVersion,
		}

		if err := ext.Sign(signer, o); err != nil {
			return err
		}

		// the caller may have given up while the extrinsic was prepared
		if err := ctx.Err(); err != nil {
			return err
		}
		hash, err = c.api.RPC.Author.SubmitExtrinsic(ext)
		return err
	})
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

func (c *substrateClient) SubmitExtrinsic(ctx context.Context, extrinsic []byte) (string, error) {
	var hash gstypes.Hash
	err := withContext(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return c.api.Client.Call(&hash, "author_submitExtrinsic", gstypes.HexEncodeToString(extrinsic))
	})
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

func (c *substrateClient) SubscribeFinalizedHeads(ctx context.Context) (<-chan types.HeaderEvent, <-chan error, error) {
	sub, err := c.api.RPC.Chain.SubscribeFinalizedHeads()
	if err != nil {
		return nil, nil, err
	}

	heads := make(chan types.HeaderEvent)
	errs := make(chan error, 1)
	go func() {
		defer close(heads)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				errs <- err
				return
			case header := <-sub.Chan():
				hash, err := c.api.RPC.Chain.GetBlockHash(uint64(header.Number))
				if err != nil {
					errs <- fmt.Errorf("chain_getBlockHash(%d): %w", header.Number, err)
					return
				}
				event := types.HeaderEvent{
					Number:         uint32(header.Number),
					Hash:           hash.Hex(),
					ParentHash:     header.ParentHash.Hex(),
					StateRoot:      header.StateRoot.Hex(),
					ExtrinsicsRoot: header.ExtrinsicsRoot.Hex(),
					ReceivedAt:     time.Now(),
				}
				select {
				case heads <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return heads, errs, nil
}

func (c *substrateClient) Close() {
	if closer, ok := c.api.Client.(interface{ Close() }); ok {
		closer.Close()
	}
}

// withContext runs call, giving up when ctx is done first. The underlying
// RPC library has no context support, so an abandoned call finishes in the
// background.
func withContext(ctx context.Context, call func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- call()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
