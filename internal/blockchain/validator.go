package blockchain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const addressLength = 42 // "0x" + 40 hex chars

// IsValidAddress reports whether addr is a syntactically well-formed
// settlement-chain address. Pure check, no network call.
func IsValidAddress(addr string) bool {
	if len(addr) != addressLength || !strings.HasPrefix(addr, "0x") {
		return false
	}
	return common.IsHexAddress(addr)
}

// NormalizeAddress lowercases an address for comparison. Checksum casing
// differs between sources; equality checks must not.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}

// EnsureChain verifies the connected chain ID matches the expected one.
func EnsureChain(got, want uint64, label string) error {
	if got != want {
		return fmt.Errorf("%w: %s chain id %d, connected to %d", ErrWrongNetwork, label, want, got)
	}
	return nil
}
