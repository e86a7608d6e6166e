package blockchain

import "math/big"

// Payout computes winningShares * totalPool / totalWinningShares in integer
// arithmetic on the smallest on-chain unit, so the sum of all payouts never
// exceeds the pool (the division remainder, at most one unit per claimant,
// stays in the contract).
//
// The shadow ledger uses the same formula so a market that later gains a real
// contract pays out consistently.
func Payout(winningShares, totalPool, totalWinningShares *big.Int) *big.Int {
	if winningShares == nil || totalPool == nil || totalWinningShares == nil {
		return new(big.Int)
	}
	if winningShares.Sign() <= 0 || totalWinningShares.Sign() <= 0 {
		return new(big.Int)
	}

	out := new(big.Int).Mul(winningShares, totalPool)
	return out.Div(out, totalWinningShares)
}
