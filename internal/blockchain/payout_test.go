package blockchain

import (
	"math/big"
	"testing"
)

func TestPayoutProportionalShare(t *testing.T) {
	// 10 of 100 winning shares over a 1e18 pool pays 1e17.
	pool, _ := new(big.Int).SetString("1000000000000000000", 10)
	want, _ := new(big.Int).SetString("100000000000000000", 10)

	got := Payout(big.NewInt(10), pool, big.NewInt(100))
	if got.Cmp(want) != 0 {
		t.Errorf("Payout = %s, want %s", got, want)
	}
}

func TestPayoutSumNeverExceedsPool(t *testing.T) {
	// 3 does not divide 1000: each claimant loses the fractional unit and the
	// remainder stays in the pool.
	pool := big.NewInt(1000)
	shares := []*big.Int{big.NewInt(1), big.NewInt(1), big.NewInt(1)}
	totalWinning := big.NewInt(3)

	sum := new(big.Int)
	for _, s := range shares {
		sum.Add(sum, Payout(s, pool, totalWinning))
	}

	if sum.Cmp(pool) > 0 {
		t.Errorf("payouts sum to %s, exceeding pool %s", sum, pool)
	}
	if got := Payout(shares[0], pool, totalWinning); got.Cmp(big.NewInt(333)) != 0 {
		t.Errorf("per-claimant payout = %s, want 333", got)
	}
}

func TestPayoutZeroGuards(t *testing.T) {
	cases := []struct {
		name                            string
		winning, pool, totalWinning *big.Int
	}{
		{"nil inputs", nil, nil, nil},
		{"zero winning shares", big.NewInt(0), big.NewInt(100), big.NewInt(10)},
		{"zero total winning", big.NewInt(5), big.NewInt(100), big.NewInt(0)},
	}

	for _, tc := range cases {
		if got := Payout(tc.winning, tc.pool, tc.totalWinning); got.Sign() != 0 {
			t.Errorf("%s: Payout = %s, want 0", tc.name, got)
		}
	}
}
