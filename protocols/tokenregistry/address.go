package tokenregistry

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	solcommon "github.com/blocto/solana-go-sdk/common"
)

// NormalizeAddress returns the registry key for addr.
// Hex (EVM) addresses are checksummed; base58 keys are case-sensitive and kept verbatim.
func NormalizeAddress(addr string) string {
	a := strings.TrimSpace(addr)
	if common.IsHexAddress(a) {
		return common.HexToAddress(a).Hex()
	}
	return a
}

// IsBase58PublicKey reports whether addr is a canonical base58 encoding of a 32-byte key.
func IsBase58PublicKey(addr string) bool {
	if len(addr) < 32 || len(addr) > 44 {
		return false
	}
	return solcommon.PublicKeyFromString(addr).ToBase58() == addr
}

// TruncatedSymbol is the placeholder symbol/name for assets known only from the ledger.
func TruncatedSymbol(addr string) string {
	if len(addr) <= 6 {
		return addr
	}
	return addr[:6]
}
