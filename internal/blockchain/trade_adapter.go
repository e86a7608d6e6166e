package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Side is the outcome side of a trade.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Code returns the on-chain outcome code (1 = YES, 2 = NO).
func (s Side) Code() uint8 {
	if s == SideYes {
		return 1
	}
	return 2
}

// TxResult is the outcome of a confirmed settlement-chain write.
type TxResult struct {
	TxHash  string
	Version Version
}

// ClaimResult is the outcome of a confirmed claim.
type ClaimResult struct {
	Amount *big.Int
	TxHash string
}

// TradeAdapter exposes version-agnostic buy/sell/claim operations and
// dispatches to the call shape of the detected interface version. Every write
// waits for the transaction to be mined before reporting success.
type TradeAdapter struct {
	pool     *ProviderPool
	versions *VersionResolver
}

// NewTradeAdapter creates a trade adapter.
func NewTradeAdapter(pool *ProviderPool, versions *VersionResolver) *TradeAdapter {
	return &TradeAdapter{pool: pool, versions: versions}
}

// buyCall returns the method name and arguments for a buy on the given
// interface version: one parameterized call for legacy, a side-specific call
// for current.
func buyCall(version Version, side Side) (string, []interface{}) {
	if version == VersionLegacy {
		return "buyShares", []interface{}{side.Code()}
	}
	if side == SideYes {
		return "buyYes", nil
	}
	return "buyNo", nil
}

// Buy purchases outcome shares, attaching amount (smallest unit) as the
// transferred value. After a revert against a cached version, the binding is
// dropped and re-probed once before giving up, in case the cache was stale.
func (a *TradeAdapter) Buy(ctx context.Context, addr string, side Side, amount *big.Int) (*TxResult, error) {
	version, err := a.resolveTradable(ctx, addr)
	if err != nil {
		return nil, err
	}

	method, args := buyCall(version, side)
	result, err := a.transact(ctx, addr, version, amount, method, args...)
	if err == nil {
		return result, nil
	}

	var revert *RevertError
	if !errors.As(err, &revert) {
		return nil, err
	}

	a.versions.Forget(addr)
	reprobed, rerr := a.versions.Resolve(ctx, addr)
	if rerr != nil || reprobed == version || reprobed == VersionInvalid {
		return nil, err
	}

	log.Printf("[TradeAdapter] Re-probed %s: %s -> %s, retrying buy", addr, version, reprobed)
	method, args = buyCall(reprobed, side)
	return a.transact(ctx, addr, reprobed, amount, method, args...)
}

// Sell sells shares back to the pool. Only the legacy interface has a sell
// path; against a current-version contract this fails fast without issuing
// any call.
func (a *TradeAdapter) Sell(ctx context.Context, addr string, side Side, shares *big.Int) (*TxResult, error) {
	version, err := a.resolveTradable(ctx, addr)
	if err != nil {
		return nil, err
	}
	if version != VersionLegacy {
		return nil, ErrSellUnsupported
	}

	return a.transact(ctx, addr, version, nil, "sellShares", side.Code(), shares)
}

// Claim pays out the acting address's winning shares. The contract itself is
// the guard against double-claiming: it zeroes the caller's shares in the
// same transaction that pays out. The preview read here only computes the
// expected amount and surfaces "already claimed" without spending gas.
func (a *TradeAdapter) Claim(ctx context.Context, addr string, acting string) (*ClaimResult, error) {
	version, err := a.resolveTradable(ctx, addr)
	if err != nil {
		return nil, err
	}

	client, err := a.pool.Read(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := claimPreview(ctx, client, version, common.HexToAddress(addr), common.HexToAddress(acting))
	if err != nil {
		return nil, err
	}
	if !snap.resolved {
		return nil, fmt.Errorf("%w: market not resolved yet", ErrMarketClosed)
	}
	if snap.userWinning.Sign() == 0 {
		// Shares already zeroed by a prior claim, or never held.
		return nil, ErrAlreadyClaimed
	}

	amount := Payout(snap.userWinning, snap.totalPool, snap.totalWinning)

	result, err := a.transact(ctx, addr, version, nil, "claimWinnings")
	if err != nil {
		return nil, err
	}

	return &ClaimResult{Amount: amount, TxHash: result.TxHash}, nil
}

// WinningOutcome reads the resolved outcome code straight from the contract.
func (a *TradeAdapter) WinningOutcome(ctx context.Context, addr string) (uint8, error) {
	version, err := a.resolveTradable(ctx, addr)
	if err != nil {
		return 0, err
	}

	client, err := a.pool.Read(ctx)
	if err != nil {
		return 0, err
	}

	contract := common.HexToAddress(addr)
	resolved, err := viewBool(ctx, client, abiFor(version), contract, "resolved")
	if err != nil {
		return 0, err
	}
	if !resolved {
		return 0, fmt.Errorf("%w: market not resolved yet", ErrMarketClosed)
	}
	return viewUint8(ctx, client, abiFor(version), contract, "outcome")
}

func (a *TradeAdapter) resolveTradable(ctx context.Context, addr string) (Version, error) {
	version, err := a.versions.Resolve(ctx, addr)
	if err != nil {
		return VersionInvalid, err
	}
	if version == VersionInvalid {
		return VersionInvalid, ErrInvalidContract
	}
	return version, nil
}

// transact submits one write through the operator connection and blocks until
// the chain confirms it. No optimistic polling: confirmation is awaited
// before success is reported.
func (a *TradeAdapter) transact(ctx context.Context, addr string, version Version, value *big.Int, method string, args ...interface{}) (*TxResult, error) {
	opts, client, err := a.pool.Write(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = value

	bound := bindContract(common.HexToAddress(addr), abiFor(version), client)
	tx, err := bound.Transact(opts, method, args...)
	if err != nil {
		return nil, mapChainError(err)
	}

	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return nil, mapChainError(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &RevertError{Reason: fmt.Sprintf("%s reverted on-chain (tx %s)", method, tx.Hash().Hex())}
	}

	log.Printf("[TradeAdapter] %s confirmed: %s (version %s)", method, tx.Hash().Hex(), version)
	return &TxResult{TxHash: tx.Hash().Hex(), Version: version}, nil
}

func bindContract(addr common.Address, contractABI abi.ABI, client *ethclient.Client) *bind.BoundContract {
	return bind.NewBoundContract(addr, contractABI, client, client, client)
}

// claimSnapshot is the per-claim read set, normalized across versions.
type claimSnapshot struct {
	resolved     bool
	outcomeCode  uint8
	totalPool    *big.Int
	totalWinning *big.Int
	userWinning  *big.Int
}

// claimPreview reads the claim inputs with the version-appropriate views.
// Legacy tracks shares separately from deposits; current treats deposits as
// shares, so its per-side pool doubles as the winning-share total.
func claimPreview(ctx context.Context, client contractCaller, version Version, contract, acting common.Address) (*claimSnapshot, error) {
	contractABI := abiFor(version)

	resolved, err := viewBool(ctx, client, contractABI, contract, "resolved")
	if err != nil {
		return nil, err
	}
	if !resolved {
		return &claimSnapshot{resolved: false}, nil
	}

	outcomeCode, err := viewUint8(ctx, client, contractABI, contract, "outcome")
	if err != nil {
		return nil, err
	}

	snap := &claimSnapshot{resolved: true, outcomeCode: outcomeCode}

	if version == VersionLegacy {
		if snap.totalPool, err = viewBig(ctx, client, contractABI, contract, "totalPool"); err != nil {
			return nil, err
		}
		if snap.totalWinning, err = viewBig(ctx, client, contractABI, contract, "totalShares", outcomeCode); err != nil {
			return nil, err
		}
		if snap.userWinning, err = viewBig(ctx, client, contractABI, contract, "userShares", acting, outcomeCode); err != nil {
			return nil, err
		}
		return snap, nil
	}

	yesPool, err := viewBig(ctx, client, contractABI, contract, "yesPool")
	if err != nil {
		return nil, err
	}
	noPool, err := viewBig(ctx, client, contractABI, contract, "noPool")
	if err != nil {
		return nil, err
	}
	snap.totalPool = new(big.Int).Add(yesPool, noPool)

	sharesView := "yesShares"
	snap.totalWinning = yesPool
	if outcomeCode == SideNo.Code() {
		sharesView = "noShares"
		snap.totalWinning = noPool
	}
	if snap.userWinning, err = viewBig(ctx, client, contractABI, contract, sharesView, acting); err != nil {
		return nil, err
	}
	return snap, nil
}

// callView packs, calls and unpacks one view function.
func callView(ctx context.Context, client contractCaller, contractABI abi.ABI, contract common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	ret, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, mapChainError(err)
	}

	out, err := contractABI.Unpack(method, ret)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return out, nil
}

func viewBool(ctx context.Context, client contractCaller, contractABI abi.ABI, contract common.Address, method string) (bool, error) {
	out, err := callView(ctx, client, contractABI, contract, method)
	if err != nil {
		return false, err
	}
	value, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected return type from %s", method)
	}
	return value, nil
}

func viewUint8(ctx context.Context, client contractCaller, contractABI abi.ABI, contract common.Address, method string) (uint8, error) {
	out, err := callView(ctx, client, contractABI, contract, method)
	if err != nil {
		return 0, err
	}
	value, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected return type from %s", method)
	}
	return value, nil
}

func viewBig(ctx context.Context, client contractCaller, contractABI abi.ABI, contract common.Address, method string, args ...interface{}) (*big.Int, error) {
	out, err := callView(ctx, client, contractABI, contract, method, args...)
	if err != nil {
		return nil, err
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from %s", method)
	}
	return value, nil
}

func viewAddress(ctx context.Context, client contractCaller, contractABI abi.ABI, contract common.Address, method string) (common.Address, error) {
	out, err := callView(ctx, client, contractABI, contract, method)
	if err != nil {
		return common.Address{}, err
	}
	value, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected return type from %s", method)
	}
	return value, nil
}
