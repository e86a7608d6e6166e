package blockchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// The escrow contract was deployed in two incompatible interface generations.
// Both expose overlapping names with different semantics, so calls must go
// through the version detected by the resolver.

// legacyABIJSON is the first-generation escrow interface: one parameterized
// call per operation, outcome codes 1 (YES) and 2 (NO).
const legacyABIJSON = `[
	{"type":"function","name":"buyShares","stateMutability":"payable","inputs":[{"name":"outcome","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"sellShares","stateMutability":"nonpayable","inputs":[{"name":"outcome","type":"uint8"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"resolve","stateMutability":"nonpayable","inputs":[{"name":"winner","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"claimWinnings","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"totalShares","stateMutability":"view","inputs":[{"name":"outcome","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"userShares","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"outcome","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalPool","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"resolved","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"outcome","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"endTime","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"creator","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

// currentABIJSON is the second-generation interface: side-specific buy calls,
// per-side pools, no sell path.
const currentABIJSON = `[
	{"type":"function","name":"buyYes","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"buyNo","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"resolve","stateMutability":"nonpayable","inputs":[{"name":"outcome","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"claimWinnings","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"yesPool","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"noPool","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"yesShares","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"noShares","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"resolved","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"outcome","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"endTime","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"creator","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

// resolutionABIJSON is the resolution-chain contract. The consensus procedure
// behind resolve() is opaque; we only consume its finalized result.
const resolutionABIJSON = `[
	{"type":"function","name":"resolve","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"resolved","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"outcome","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"resolution_reasoning","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var (
	legacyABI     = mustParseABI(legacyABIJSON)
	currentABI    = mustParseABI(currentABIJSON)
	resolutionABI = mustParseABI(resolutionABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("invalid embedded ABI: " + err.Error())
	}
	return parsed
}

// abiFor returns the parsed ABI for a detected interface version.
func abiFor(version Version) abi.ABI {
	if version == VersionLegacy {
		return legacyABI
	}
	return currentABI
}
