package blockchain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestBuyCallDispatch(t *testing.T) {
	cases := []struct {
		version    Version
		side       Side
		wantMethod string
		wantArgs   []interface{}
	}{
		{VersionLegacy, SideYes, "buyShares", []interface{}{uint8(1)}},
		{VersionLegacy, SideNo, "buyShares", []interface{}{uint8(2)}},
		{VersionCurrent, SideYes, "buyYes", nil},
		{VersionCurrent, SideNo, "buyNo", nil},
	}

	for _, tc := range cases {
		method, args := buyCall(tc.version, tc.side)
		if method != tc.wantMethod {
			t.Errorf("buyCall(%s, %s) method = %s, want %s", tc.version, tc.side, method, tc.wantMethod)
		}
		if len(args) != len(tc.wantArgs) {
			t.Errorf("buyCall(%s, %s) args = %v, want %v", tc.version, tc.side, args, tc.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != tc.wantArgs[i] {
				t.Errorf("buyCall(%s, %s) arg %d = %v, want %v", tc.version, tc.side, i, args[i], tc.wantArgs[i])
			}
		}
	}
}

func TestClaimPreviewLegacy(t *testing.T) {
	user := common.HexToAddress("0x3333333333333333333333333333333333333333")
	contract := common.HexToAddress(legacyAddr)

	chain := newFakeChain(legacyABI)
	chain.outputs["resolved"] = []interface{}{true}
	chain.outputs["outcome"] = []interface{}{uint8(1)}
	chain.outputs["totalPool"] = []interface{}{big.NewInt(1000)}
	chain.outputs["totalShares"] = []interface{}{big.NewInt(100)}
	chain.outputs["userShares"] = []interface{}{big.NewInt(10)}

	snap, err := claimPreview(context.Background(), chain, VersionLegacy, contract, user)
	if err != nil {
		t.Fatalf("claimPreview failed: %v", err)
	}

	if !snap.resolved {
		t.Fatal("expected resolved snapshot")
	}
	if snap.totalPool.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("totalPool = %s, want 1000", snap.totalPool)
	}
	if snap.totalWinning.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("totalWinning = %s, want 100", snap.totalWinning)
	}
	if snap.userWinning.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("userWinning = %s, want 10", snap.userWinning)
	}

	if amount := Payout(snap.userWinning, snap.totalPool, snap.totalWinning); amount.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("payout = %s, want 100", amount)
	}
}

func TestClaimPreviewCurrent(t *testing.T) {
	user := common.HexToAddress("0x3333333333333333333333333333333333333333")
	contract := common.HexToAddress(currentAddr)

	chain := newFakeChain(currentABI)
	chain.outputs["resolved"] = []interface{}{true}
	chain.outputs["outcome"] = []interface{}{uint8(2)}
	chain.outputs["yesPool"] = []interface{}{big.NewInt(600)}
	chain.outputs["noPool"] = []interface{}{big.NewInt(400)}
	chain.outputs["noShares"] = []interface{}{big.NewInt(40)}

	snap, err := claimPreview(context.Background(), chain, VersionCurrent, contract, user)
	if err != nil {
		t.Fatalf("claimPreview failed: %v", err)
	}

	// NO won: deposits double as shares, so noPool is the winning-share total
	// and the full pool is yes + no.
	if snap.totalPool.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("totalPool = %s, want 1000", snap.totalPool)
	}
	if snap.totalWinning.Cmp(big.NewInt(400)) != 0 {
		t.Errorf("totalWinning = %s, want 400", snap.totalWinning)
	}
	if snap.userWinning.Cmp(big.NewInt(40)) != 0 {
		t.Errorf("userWinning = %s, want 40", snap.userWinning)
	}
	if chain.calls["yesShares"] != 0 {
		t.Error("losing-side share view must not be read")
	}

	if amount := Payout(snap.userWinning, snap.totalPool, snap.totalWinning); amount.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("payout = %s, want 100", amount)
	}
}

func TestClaimPreviewUnresolved(t *testing.T) {
	chain := newFakeChain(legacyABI)
	chain.outputs["resolved"] = []interface{}{false}

	snap, err := claimPreview(context.Background(), chain, VersionLegacy, common.HexToAddress(legacyAddr), common.Address{})
	if err != nil {
		t.Fatalf("claimPreview failed: %v", err)
	}
	if snap.resolved {
		t.Error("expected unresolved snapshot")
	}
	if chain.calls["outcome"] != 0 {
		t.Error("no further views should be read for an unresolved market")
	}
}
