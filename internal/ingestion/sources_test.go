package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/feed"
)

type fakeSubscriber struct {
	ch     chan *domain.Trade
	err    error
	filter feed.TradeFilter
}

func (f *fakeSubscriber) SubscribeTrades(_ context.Context, filter feed.TradeFilter) (<-chan *domain.Trade, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func TestWSTradeSource_ForwardsInOrder(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan *domain.Trade, 3)}
	filter := feed.TradeFilter{PoolTypes: []domain.PoolType{domain.PoolTypeRaydiumAmm}}
	src := NewWSTradeSource(sub, filter)

	out, err := src.Subscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filter, sub.filter)

	for _, w := range []string{"a", "b", "c"} {
		sub.ch <- &domain.Trade{FromWallet: w}
	}
	close(sub.ch)

	var got []string
	for tr := range out {
		got = append(got, tr.FromWallet)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestWSTradeSource_ClosesOnCancel(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan *domain.Trade)}
	src := NewWSTradeSource(sub, feed.TradeFilter{})

	ctx, cancel := context.WithCancel(context.Background())
	out, err := src.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWSTradeSource_SubscribeError(t *testing.T) {
	src := NewWSTradeSource(&fakeSubscriber{err: errors.New("refused")}, feed.TradeFilter{})

	_, err := src.Subscribe(context.Background())
	assert.Error(t, err)
}
