package blockchain

import (
	"context"
	"math/big"
	"testing"
)

const (
	legacyAddr  = "0x1111111111111111111111111111111111111111"
	currentAddr = "0x2222222222222222222222222222222222222222"
)

func TestResolveClassifiesLegacy(t *testing.T) {
	chain := newFakeChain(legacyABI)
	chain.outputs["totalShares"] = []interface{}{big.NewInt(500)}

	resolver := newVersionResolverWithReader(fixedReader(chain))

	version, err := resolver.Resolve(context.Background(), legacyAddr)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if version != VersionLegacy {
		t.Errorf("expected legacy, got %s", version)
	}
}

func TestResolveClassifiesCurrent(t *testing.T) {
	// A current-generation contract has no totalShares view, so the shape
	// probe reverts.
	chain := newFakeChain(currentABI)

	resolver := newVersionResolverWithReader(fixedReader(chain))

	version, err := resolver.Resolve(context.Background(), currentAddr)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if version != VersionCurrent {
		t.Errorf("expected current, got %s", version)
	}
}

func TestResolveCachesPositiveResult(t *testing.T) {
	chain := newFakeChain(legacyABI)
	chain.outputs["totalShares"] = []interface{}{big.NewInt(1)}

	resolver := newVersionResolverWithReader(fixedReader(chain))

	if _, err := resolver.Resolve(context.Background(), legacyAddr); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), legacyAddr); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if chain.codeCalls != 1 {
		t.Errorf("expected exactly one bytecode check, got %d", chain.codeCalls)
	}
	if chain.calls["totalShares"] != 1 {
		t.Errorf("expected exactly one shape probe, got %d", chain.calls["totalShares"])
	}
}

func TestResolveMalformedAddress(t *testing.T) {
	called := false
	resolver := newVersionResolverWithReader(func(ctx context.Context) (contractCaller, error) {
		called = true
		return nil, nil
	})

	for _, addr := range []string{"", "0x123", "not-an-address", "1111111111111111111111111111111111111111111"} {
		version, err := resolver.Resolve(context.Background(), addr)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", addr, err)
		}
		if version != VersionInvalid {
			t.Errorf("Resolve(%q) = %s, want invalid", addr, version)
		}
	}

	if called {
		t.Error("malformed addresses must be rejected without any network call")
	}
}

func TestResolveDoesNotCacheMissingCode(t *testing.T) {
	chain := newFakeChain(legacyABI)
	chain.code = nil

	resolver := newVersionResolverWithReader(fixedReader(chain))

	version, err := resolver.Resolve(context.Background(), legacyAddr)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if version != VersionInvalid {
		t.Fatalf("expected invalid while code is missing, got %s", version)
	}

	// The contract "appears" (e.g. the earlier empty response was a flaky
	// node). The next lookup must probe again instead of trusting a cached
	// invalid.
	chain.code = []byte{0x60, 0x80}
	chain.outputs["totalShares"] = []interface{}{big.NewInt(7)}

	version, err = resolver.Resolve(context.Background(), legacyAddr)
	if err != nil {
		t.Fatalf("re-Resolve failed: %v", err)
	}
	if version != VersionLegacy {
		t.Errorf("expected legacy after code appeared, got %s", version)
	}
}

func TestForgetDropsSingleEntry(t *testing.T) {
	chain := newFakeChain(legacyABI)
	chain.outputs["totalShares"] = []interface{}{big.NewInt(1)}

	resolver := newVersionResolverWithReader(fixedReader(chain))

	if _, err := resolver.Resolve(context.Background(), legacyAddr); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	resolver.Forget(legacyAddr)

	if _, err := resolver.Resolve(context.Background(), legacyAddr); err != nil {
		t.Fatalf("Resolve after Forget failed: %v", err)
	}
	if chain.calls["totalShares"] != 2 {
		t.Errorf("expected a re-probe after Forget, got %d probes", chain.calls["totalShares"])
	}
}
