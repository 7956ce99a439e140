// Package ingestion adapts external trade feeds into trade channels.
package ingestion

import (
	"context"

	"solana-wallet-map/internal/domain"
)

// TradeSource provides raw trades from an external feed.
type TradeSource interface {
	// Subscribe starts delivery. Trades arrive in feed order. The channel is
	// closed when the context is cancelled or the feed ends.
	Subscribe(ctx context.Context) (<-chan *domain.Trade, error)
}
