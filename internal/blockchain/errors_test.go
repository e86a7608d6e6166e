package blockchain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapChainError(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"user denied transaction signature", ErrUserRejected},
		{"RPC error, code: 4001", ErrUserRejected},
		{"insufficient funds for gas * price + value", ErrInsufficientFunds},
		{"execution reverted: Already claimed", ErrAlreadyClaimed},
		{"execution reverted: No winning shares", ErrAlreadyClaimed},
		{"execution reverted: Market already resolved", ErrMarketClosed},
		{"execution reverted: Trading closed", ErrMarketClosed},
		{"execution reverted: Market not ended", ErrMarketClosed},
		{"execution reverted: Not the creator", ErrNotAuthorized},
	}

	for _, tc := range cases {
		got := mapChainError(fmt.Errorf("%s", tc.raw))
		if !errors.Is(got, tc.want) {
			t.Errorf("mapChainError(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestMapChainErrorUnknownRevert(t *testing.T) {
	got := mapChainError(fmt.Errorf("execution reverted: something exotic"))

	var revert *RevertError
	if !errors.As(got, &revert) {
		t.Fatalf("expected RevertError, got %v", got)
	}
	if !strings.Contains(revert.Reason, "something exotic") {
		t.Errorf("reason lost: %q", revert.Reason)
	}
}

func TestMapChainErrorTruncatesLongReasons(t *testing.T) {
	long := "execution reverted: " + strings.Repeat("x", 500)
	got := mapChainError(fmt.Errorf("%s", long))

	var revert *RevertError
	if !errors.As(got, &revert) {
		t.Fatalf("expected RevertError, got %v", got)
	}
	if len(revert.Reason) > maxRevertReason+3 {
		t.Errorf("reason not truncated: %d chars", len(revert.Reason))
	}
}

func TestMapChainErrorNil(t *testing.T) {
	if err := mapChainError(nil); err != nil {
		t.Errorf("mapChainError(nil) = %v", err)
	}
}

func TestIsValidAddress(t *testing.T) {
	valid := []string{
		"0x1111111111111111111111111111111111111111",
		"0xAbCdEf0123456789aBcDeF0123456789abcdef01",
	}
	for _, addr := range valid {
		if !IsValidAddress(addr) {
			t.Errorf("IsValidAddress(%q) = false, want true", addr)
		}
	}

	invalid := []string{
		"",
		"0x123",
		"1111111111111111111111111111111111111111",     // no prefix
		"0x11111111111111111111111111111111111111111",  // too long
		"0xzz11111111111111111111111111111111111111",   // non-hex
	}
	for _, addr := range invalid {
		if IsValidAddress(addr) {
			t.Errorf("IsValidAddress(%q) = true, want false", addr)
		}
	}
}
