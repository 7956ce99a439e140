package ingestion

import (
	"errors"
	"sort"

	"solana-wallet-map/internal/domain"
)

// ErrInvalidOrdering is returned when trades are not in chain order.
var ErrInvalidOrdering = errors.New("trades are not in deterministic order")

// SortTrades orders trades by (slot ASC, signature ASC).
// The sort is stable, so trades of one transaction keep their relative order.
func SortTrades(trades []*domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return compareTrades(trades[i], trades[j]) < 0
	})
}

// ValidateTradeOrdering checks if trades are in (slot, signature) order.
// Equal keys are allowed. Returns ErrInvalidOrdering if not.
func ValidateTradeOrdering(trades []*domain.Trade) error {
	for i := 1; i < len(trades); i++ {
		if compareTrades(trades[i-1], trades[i]) > 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareTrades returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (slot ASC, signature ASC)
func compareTrades(a, b *domain.Trade) int {
	if a.Slot != b.Slot {
		if a.Slot < b.Slot {
			return -1
		}
		return 1
	}
	if a.Signature != b.Signature {
		if a.Signature < b.Signature {
			return -1
		}
		return 1
	}
	return 0
}
