package ingestion

import (
	"context"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/feed"
)

// TradeSubscriber is the part of feed.WSClient used by WSTradeSource.
type TradeSubscriber interface {
	SubscribeTrades(ctx context.Context, filter feed.TradeFilter) (<-chan *domain.Trade, error)
}

// WSTradeSource provides real-time trades via WebSocket subscription.
type WSTradeSource struct {
	ws     TradeSubscriber
	filter feed.TradeFilter
}

// NewWSTradeSource creates a new WebSocket-based trade source.
func NewWSTradeSource(ws TradeSubscriber, filter feed.TradeFilter) *WSTradeSource {
	return &WSTradeSource{ws: ws, filter: filter}
}

// Subscribe returns a channel of trades from the live subscription.
func (s *WSTradeSource) Subscribe(ctx context.Context) (<-chan *domain.Trade, error) {
	tradesCh, err := s.ws.SubscribeTrades(ctx, s.filter)
	if err != nil {
		return nil, err
	}

	out := make(chan *domain.Trade)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-tradesCh:
				if !ok {
					return
				}
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

var _ TradeSource = (*WSTradeSource)(nil)
