package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const probeTimeout = 5 * time.Second

// ProviderPool supplies the two kinds of settlement-chain connections: a
// write connection bound to the operator key, and a read-only connection to
// the public endpoint with ordered fallbacks. The healthy-endpoint memo is
// process-wide state: it survives until Reset or process exit.
type ProviderPool struct {
	endpoints []string
	chainID   *big.Int
	key       *ecdsa.PrivateKey

	mu           sync.Mutex
	read         *ethclient.Client
	readEndpoint string

	dial func(ctx context.Context, url string) (*ethclient.Client, error)
}

// NewProviderPool creates a provider pool. operatorKeyHex may be empty, in
// which case only read access is available and Write fails with ErrNoWallet.
func NewProviderPool(endpoints []string, chainID uint64, operatorKeyHex string) (*ProviderPool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one settlement RPC endpoint is required")
	}

	pool := &ProviderPool{
		endpoints: endpoints,
		chainID:   new(big.Int).SetUint64(chainID),
		dial:      ethclient.DialContext,
	}

	if operatorKeyHex != "" {
		key, err := crypto.HexToECDSA(trimHexPrefix(operatorKeyHex))
		if err != nil {
			return nil, fmt.Errorf("invalid operator key: %w", err)
		}
		pool.key = key
		log.Printf("[ProviderPool] Operator wallet loaded: %s", crypto.PubkeyToAddress(key.PublicKey).Hex())
	}

	return pool, nil
}

// ChainID returns the expected settlement chain ID.
func (p *ProviderPool) ChainID() uint64 {
	return p.chainID.Uint64()
}

// OperatorAddress returns the write connection's address, or empty when no
// operator key is configured.
func (p *ProviderPool) OperatorAddress() string {
	if p.key == nil {
		return ""
	}
	return crypto.PubkeyToAddress(p.key.PublicKey).Hex()
}

// Read returns a connection to the settlement chain's public endpoint. The
// first healthy endpoint is memoized; a stale memo triggers exactly one
// rotation pass over the configured fallbacks before giving up with
// ErrNetworkUnavailable.
func (p *ProviderPool) Read(ctx context.Context) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.read != nil {
		if err := p.probe(ctx, p.read); err == nil {
			return p.read, nil
		}
		log.Printf("[ProviderPool] Endpoint %s went stale, rotating", p.readEndpoint)
		p.read.Close()
		p.read = nil
		p.readEndpoint = ""
	}

	for _, endpoint := range p.endpoints {
		client, err := p.dial(ctx, endpoint)
		if err != nil {
			log.Printf("[ProviderPool] Dial failed for %s: %v", endpoint, err)
			continue
		}
		if err := p.probe(ctx, client); err != nil {
			log.Printf("[ProviderPool] Liveness probe failed for %s: %v", endpoint, err)
			client.Close()
			continue
		}
		p.read = client
		p.readEndpoint = endpoint
		log.Printf("[ProviderPool] Using settlement endpoint %s", endpoint)
		return client, nil
	}

	return nil, ErrNetworkUnavailable
}

// Write returns the operator-bound transact opts plus a client to submit
// through, or ErrNoWallet when no operator key is configured.
func (p *ProviderPool) Write(ctx context.Context) (*bind.TransactOpts, *ethclient.Client, error) {
	if p.key == nil {
		return nil, nil, ErrNoWallet
	}

	client, err := p.Read(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(p.key, p.chainID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	opts.Context = ctx

	return opts, client, nil
}

// Reset clears the memoized endpoint so the next Read starts from the primary.
func (p *ProviderPool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.read != nil {
		p.read.Close()
	}
	p.read = nil
	p.readEndpoint = ""
}

// probe is the cheap liveness call: fetch the current block height, then
// verify the endpoint actually serves the expected chain.
func (p *ProviderPool) probe(ctx context.Context, client *ethclient.Client) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := client.BlockNumber(probeCtx); err != nil {
		return err
	}

	got, err := client.ChainID(probeCtx)
	if err != nil {
		return err
	}
	return EnsureChain(got.Uint64(), p.chainID.Uint64(), "settlement")
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
