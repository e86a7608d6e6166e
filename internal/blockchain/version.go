package blockchain

import (
	"context"
	"log"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Version is the detected escrow-contract interface version.
type Version string

const (
	VersionLegacy  Version = "legacy"
	VersionCurrent Version = "current"
	VersionInvalid Version = "invalid"
)

// contractCaller is the read surface the resolver needs. *ethclient.Client
// satisfies it.
type contractCaller interface {
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// VersionResolver classifies settlement-chain addresses by escrow interface
// version. Results are cached positive-only: legacy/current stick (interface
// version is immutable for a deployed contract), invalid is re-checked on
// every call because absence of code may be a transient RPC condition.
//
// The cache has no lock around the probe itself: concurrent first lookups may
// each probe redundantly, which is fine since probes are idempotent reads.
type VersionResolver struct {
	reader func(ctx context.Context) (contractCaller, error)

	mu    sync.RWMutex
	cache map[common.Address]Version
}

// NewVersionResolver creates a resolver reading through the provider pool.
func NewVersionResolver(pool *ProviderPool) *VersionResolver {
	return &VersionResolver{
		reader: func(ctx context.Context) (contractCaller, error) {
			return pool.Read(ctx)
		},
		cache: make(map[common.Address]Version),
	}
}

// newVersionResolverWithReader is the test seam.
func newVersionResolverWithReader(reader func(ctx context.Context) (contractCaller, error)) *VersionResolver {
	return &VersionResolver{
		reader: reader,
		cache:  make(map[common.Address]Version),
	}
}

// Resolve determines which interface version the contract at addr implements.
//
// Two-tier probe: first bytecode presence (cheap existence check), then a
// call to totalShares(1), a view only the legacy shape exposes. Guessing the
// shape wrong would produce a reverted transaction that costs the user gas,
// so the probe happens before any write.
func (r *VersionResolver) Resolve(ctx context.Context, addr string) (Version, error) {
	if !IsValidAddress(addr) {
		return VersionInvalid, nil
	}

	address := common.HexToAddress(addr)

	r.mu.RLock()
	cached, ok := r.cache[address]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	client, err := r.reader(ctx)
	if err != nil {
		return VersionInvalid, err
	}

	code, err := client.CodeAt(ctx, address, nil)
	if err != nil {
		return VersionInvalid, mapChainError(err)
	}
	if len(code) == 0 {
		// Not cached: the next call must re-check in case this was a
		// transient RPC problem rather than a true non-existence.
		return VersionInvalid, nil
	}

	version := r.probeShape(ctx, client, address)

	r.mu.Lock()
	r.cache[address] = version
	r.mu.Unlock()

	log.Printf("[VersionResolver] %s classified as %s", addr, version)
	return version, nil
}

// probeShape calls the legacy-only totalShares(1) view. A well-formed uint256
// response classifies the contract as legacy; a revert or malformed response
// classifies it as current.
func (r *VersionResolver) probeShape(ctx context.Context, client contractCaller, address common.Address) Version {
	data, err := legacyABI.Pack("totalShares", uint8(1))
	if err != nil {
		return VersionCurrent
	}

	ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
	if err != nil || len(ret) < 32 {
		return VersionCurrent
	}
	return VersionLegacy
}

// Forget drops one cached binding. Used after a failed call against a cached
// version so the next resolve re-probes once before giving up.
func (r *VersionResolver) Forget(addr string) {
	address := common.HexToAddress(addr)
	r.mu.Lock()
	delete(r.cache, address)
	r.mu.Unlock()
}

// Reset clears the whole cache.
func (r *VersionResolver) Reset() {
	r.mu.Lock()
	r.cache = make(map[common.Address]Version)
	r.mu.Unlock()
}
