package blockchain

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ResolutionBridge carries a decided outcome onto the settlement chain's
// escrow contract. It reconciles three sources of truth: the market row's end
// time, the contract's own on-chain end time (deployments may enforce a
// minimum-duration floor), and, for AI-resolved markets, the resolution
// chain's finalized outcome.
type ResolutionBridge struct {
	pool     *ProviderPool
	versions *VersionResolver
	factory  common.Address

	now func() time.Time
}

// NewResolutionBridge creates a bridge. factoryAddr is the market factory
// that deploys escrow contracts; some deployments register the factory, not
// the requesting user, as the on-chain creator.
func NewResolutionBridge(pool *ProviderPool, versions *VersionResolver, factoryAddr string) *ResolutionBridge {
	return &ResolutionBridge{
		pool:     pool,
		versions: versions,
		factory:  common.HexToAddress(factoryAddr),
		now:      time.Now,
	}
}

// Resolve submits the version-appropriate resolve call after the
// preconditions pass, waits for confirmation and returns the transaction
// hash. storedCreator is the creator address from the market record, used as
// the fallback identity when the contract reports the factory as creator.
func (b *ResolutionBridge) Resolve(ctx context.Context, addr string, outcomeCode uint8, acting, storedCreator string) (string, error) {
	version, err := b.versions.Resolve(ctx, addr)
	if err != nil {
		return "", err
	}
	if version == VersionInvalid {
		return "", ErrInvalidContract
	}

	client, err := b.pool.Read(ctx)
	if err != nil {
		return "", err
	}

	contract := common.HexToAddress(addr)
	if err := checkBridgePreconditions(ctx, client, version, contract,
		common.HexToAddress(acting), common.HexToAddress(storedCreator), b.factory, b.now()); err != nil {
		return "", err
	}

	opts, writeClient, err := b.pool.Write(ctx)
	if err != nil {
		return "", err
	}

	bound := bindContract(contract, abiFor(version), writeClient)
	tx, err := bound.Transact(opts, "resolve", outcomeCode)
	if err != nil {
		return "", mapChainError(err)
	}

	receipt, err := bind.WaitMined(ctx, writeClient, tx)
	if err != nil {
		return "", mapChainError(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", &RevertError{Reason: fmt.Sprintf("resolve reverted on-chain (tx %s)", tx.Hash().Hex())}
	}

	log.Printf("[ResolutionBridge] Outcome %d bridged to %s: %s", outcomeCode, addr, tx.Hash().Hex())
	return tx.Hash().Hex(), nil
}

// checkBridgePreconditions runs the hard-stop checks in order, each against a
// fresh on-chain read. Resolution is a one-way transition, so none of these
// may be answered from cache.
func checkBridgePreconditions(ctx context.Context, client contractCaller, version Version,
	contract, acting, storedCreator, factory common.Address, now time.Time) error {

	contractABI := abiFor(version)

	// 1. Never resolve twice.
	alreadyResolved, err := viewBool(ctx, client, contractABI, contract, "resolved")
	if err != nil {
		return err
	}
	if alreadyResolved {
		return fmt.Errorf("%w: contract already resolved", ErrMarketClosed)
	}

	// 2. The contract's own end time wins over whatever end time the market
	// record advertises; deployments may have stretched it to a minimum
	// duration floor.
	endTime, err := viewBig(ctx, client, contractABI, contract, "endTime")
	if err != nil {
		return err
	}
	if big.NewInt(now.Unix()).Cmp(endTime) < 0 {
		return fmt.Errorf("%w: not ended on-chain until %s", ErrMarketClosed,
			time.Unix(endTime.Int64(), 0).UTC().Format(time.RFC3339))
	}

	// 3. Creator check, with the factory fallback: when the contract was
	// deployed through the factory, creator() reports the factory itself,
	// and the market record's stored creator is the usable identity. A
	// mismatch between on-chain and off-chain creator alone does not block
	// resolution; a different, identifiable third party does.
	creator, err := viewAddress(ctx, client, contractABI, contract, "creator")
	if err != nil {
		return err
	}

	switch {
	case creator == acting:
		return nil
	case creator == factory:
		if storedCreator == (common.Address{}) || storedCreator == acting {
			return nil
		}
		return &NotAuthorizedError{Recognized: storedCreator.Hex()}
	default:
		return &NotAuthorizedError{Recognized: creator.Hex()}
	}
}
