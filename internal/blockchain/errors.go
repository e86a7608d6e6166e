package blockchain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for everything that crosses the chain boundary. Raw transport
// errors never leave this package: callers match with errors.Is.
var (
	// ErrNoWallet means no write connection is configured.
	ErrNoWallet = errors.New("no wallet connection available")

	// ErrNetworkUnavailable means every configured RPC endpoint failed the
	// liveness probe. Retryable by the caller after backoff, never retried here.
	ErrNetworkUnavailable = errors.New("all settlement RPC endpoints unreachable")

	// ErrWrongNetwork means the connected chain is not the expected one.
	ErrWrongNetwork = errors.New("connected to the wrong network")

	// ErrInvalidContract means the address has no code or is not a recognized
	// escrow interface version. Surfaced as "trading unavailable".
	ErrInvalidContract = errors.New("contract invalid or unrecognized: trading unavailable for this market")

	// ErrMarketClosed covers on-chain guards: trading window closed, market
	// already resolved, or contract end time not yet reached for resolution.
	ErrMarketClosed = errors.New("market closed or already resolved")

	// ErrInsufficientFunds means the acting wallet cannot cover value plus gas.
	ErrInsufficientFunds = errors.New("insufficient funds: top up the acting wallet on the settlement chain")

	// ErrAlreadyClaimed is terminal: the winning shares were already paid out.
	ErrAlreadyClaimed = errors.New("winnings already claimed")

	// ErrUserRejected means the transaction was cancelled in the wallet.
	// Informational, never retried.
	ErrUserRejected = errors.New("transaction rejected by user")

	// ErrSellUnsupported: the current escrow interface has no sell path.
	ErrSellUnsupported = errors.New("sell is not supported by this contract version")
)

// NotAuthorizedError carries the address the contract actually recognizes as
// creator, to aid debugging.
type NotAuthorizedError struct {
	Recognized string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("not authorized: contract recognizes %s as creator", e.Recognized)
}

// ErrNotAuthorized is the sentinel NotAuthorizedError unwraps to.
var ErrNotAuthorized = errors.New("acting address is not the recognized creator")

func (e *NotAuthorizedError) Unwrap() error {
	return ErrNotAuthorized
}

// RevertError is any contract revert that doesn't map to a known guard. The
// reason string is truncated before it reaches the UI layer.
type RevertError struct {
	Reason string
}

const maxRevertReason = 120

func (e *RevertError) Error() string {
	return "contract reverted: " + e.Reason
}

// mapChainError translates a raw RPC/wallet error into the taxonomy above.
// Matching is on known guard phrases; everything unrecognized becomes a
// RevertError with a truncated reason.
func mapChainError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied") || strings.Contains(msg, "code: 4001"):
		return ErrUserRejected
	case strings.Contains(msg, "insufficient funds") || strings.Contains(msg, "insufficient balance"):
		return ErrInsufficientFunds
	case strings.Contains(msg, "already claimed") || strings.Contains(msg, "nothing to claim") || strings.Contains(msg, "no winning shares"):
		return ErrAlreadyClaimed
	case strings.Contains(msg, "already resolved") || strings.Contains(msg, "market resolved") ||
		strings.Contains(msg, "trading closed") || strings.Contains(msg, "market closed") ||
		strings.Contains(msg, "not ended") || strings.Contains(msg, "market ended"):
		return fmt.Errorf("%w: %s", ErrMarketClosed, truncateReason(err.Error()))
	case strings.Contains(msg, "not the creator") || strings.Contains(msg, "not owner") || strings.Contains(msg, "only creator"):
		return ErrNotAuthorized
	case strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert"):
		return &RevertError{Reason: truncateReason(err.Error())}
	}

	return fmt.Errorf("settlement chain call failed: %w", err)
}

func truncateReason(reason string) string {
	if len(reason) > maxRevertReason {
		return reason[:maxRevertReason] + "..."
	}
	return reason
}
