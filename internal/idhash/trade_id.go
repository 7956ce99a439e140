// Package idhash derives deterministic identifiers for stored records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-wallet-map/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(pool_type|in|out|amount_in|amount_out|wallet|signature|slot)
// Returns hex-encoded hash (64 characters).
//
// Trades without a signature hash only their payload, so two identical
// unsigned trades share an ID.
func ComputeTradeID(t *domain.Trade) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%d",
		t.PoolType,
		t.TokenAddressIn,
		t.TokenAddressOut,
		t.TokenAmountIn,
		t.TokenAmountOut,
		t.FromWallet,
		t.Signature,
		t.Slot,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
