package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ConsensusResult is the resolution chain's finalized decision.
type ConsensusResult struct {
	Outcome   uint8
	Rationale string
}

// GenLayerClient talks to the resolution chain, where validators run a
// multi-party consensus over external data to decide a market. The consensus
// procedure itself is opaque to us: we trigger it, wait for a concrete
// non-pending result, and carry only that result to the settlement chain.
// The two chains are never assumed to share accounts or transaction
// semantics, so this client keeps its own key and connection.
type GenLayerClient struct {
	endpoint string
	chainID  *big.Int
	key      *ecdsa.PrivateKey

	dial         func(ctx context.Context, url string) (*ethclient.Client, error)
	pollInterval time.Duration
	maxPolls     int
}

// NewGenLayerClient creates a resolution-chain client. keyHex may be empty
// for read-only use.
func NewGenLayerClient(endpoint string, chainID uint64, keyHex string) (*GenLayerClient, error) {
	client := &GenLayerClient{
		endpoint:     endpoint,
		chainID:      new(big.Int).SetUint64(chainID),
		dial:         ethclient.DialContext,
		pollInterval: 3 * time.Second,
		maxPolls:     40,
	}

	if keyHex != "" {
		key, err := crypto.HexToECDSA(trimHexPrefix(keyHex))
		if err != nil {
			return nil, fmt.Errorf("invalid resolution-chain key: %w", err)
		}
		client.key = key
	}

	return client, nil
}

// TriggerResolution starts the consensus procedure on the resolution-chain
// contract and blocks until it returns a finalized outcome with its
// rationale. It never returns a provisional result: the caller must not touch
// the settlement chain before this returns.
func (g *GenLayerClient) TriggerResolution(ctx context.Context, contractAddr string) (*ConsensusResult, error) {
	if g.key == nil {
		return nil, ErrNoWallet
	}

	client, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	contract := common.HexToAddress(contractAddr)

	opts, err := bind.NewKeyedTransactorWithChainID(g.key, g.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolution transactor: %w", err)
	}
	opts.Context = ctx

	bound := bind.NewBoundContract(contract, resolutionABI, client, client, client)
	tx, err := bound.Transact(opts, "resolve")
	if err != nil {
		return nil, mapChainError(err)
	}

	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return nil, mapChainError(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &RevertError{Reason: fmt.Sprintf("resolution trigger reverted (tx %s)", tx.Hash().Hex())}
	}

	log.Printf("[GenLayer] Consensus triggered on %s: %s", contractAddr, tx.Hash().Hex())

	// The consensus runs asynchronously after the trigger is mined. Poll the
	// contract until it reports a finalized decision.
	for attempt := 0; attempt < g.maxPolls; attempt++ {
		result, done, err := g.readResult(ctx, client, contract)
		if err != nil {
			return nil, err
		}
		if done {
			log.Printf("[GenLayer] Consensus finalized on %s: outcome=%d", contractAddr, result.Outcome)
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}

	return nil, fmt.Errorf("resolution chain consensus did not finalize in time on %s", contractAddr)
}

// ReadResolution reads an already-finalized decision without triggering a new
// consensus round. Used when retrying the bridge step alone.
func (g *GenLayerClient) ReadResolution(ctx context.Context, contractAddr string) (*ConsensusResult, bool, error) {
	client, err := g.connect(ctx)
	if err != nil {
		return nil, false, err
	}
	defer client.Close()

	return g.readResult(ctx, client, common.HexToAddress(contractAddr))
}

func (g *GenLayerClient) readResult(ctx context.Context, client contractCaller, contract common.Address) (*ConsensusResult, bool, error) {
	resolved, err := viewBool(ctx, client, resolutionABI, contract, "resolved")
	if err != nil {
		return nil, false, err
	}
	if !resolved {
		return nil, false, nil
	}

	outcomeCode, err := viewUint8(ctx, client, resolutionABI, contract, "outcome")
	if err != nil {
		return nil, false, err
	}
	if outcomeCode != 1 && outcomeCode != 2 {
		return nil, false, fmt.Errorf("resolution chain returned unknown outcome code %d", outcomeCode)
	}

	rationale, err := viewString(ctx, client, resolutionABI, contract, "resolution_reasoning")
	if err != nil {
		return nil, false, err
	}

	return &ConsensusResult{Outcome: outcomeCode, Rationale: rationale}, true, nil
}

func (g *GenLayerClient) connect(ctx context.Context) (*ethclient.Client, error) {
	if g.endpoint == "" {
		return nil, fmt.Errorf("resolution chain RPC is not configured")
	}

	client, err := g.dial(ctx, g.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: resolution chain unreachable: %v", ErrNetworkUnavailable, err)
	}

	got, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, mapChainError(err)
	}
	if err := EnsureChain(got.Uint64(), g.chainID.Uint64(), "resolution"); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

func viewString(ctx context.Context, client contractCaller, contractABI abi.ABI, contract common.Address, method string) (string, error) {
	out, err := callView(ctx, client, contractABI, contract, method)
	if err != nil {
		return "", err
	}
	value, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from %s", method)
	}
	return value, nil
}
