package ingestion

import (
	"errors"
	"testing"

	"solana-wallet-map/internal/domain"
)

func TestSortTrades(t *testing.T) {
	// Intentionally unordered trades
	trades := []*domain.Trade{
		{Slot: 200, Signature: "tx2", FromWallet: "a"},
		{Slot: 100, Signature: "tx1", FromWallet: "b"},
		{Slot: 100, Signature: "tx1", FromWallet: "c"},
		{Slot: 100, Signature: "tx0", FromWallet: "d"},
		{Slot: 300, Signature: "tx1", FromWallet: "e"},
	}

	SortTrades(trades)

	// Verify order: (slot ASC, signature ASC), ties keep input order
	expected := []string{"d", "b", "c", "a", "e"}
	for i, want := range expected {
		if trades[i].FromWallet != want {
			t.Errorf("Index %d: got wallet %s (slot %d, sig %s), want %s",
				i, trades[i].FromWallet, trades[i].Slot, trades[i].Signature, want)
		}
	}

	if err := ValidateTradeOrdering(trades); err != nil {
		t.Errorf("sorted trades should validate: %v", err)
	}
}

func TestValidateTradeOrdering(t *testing.T) {
	tests := []struct {
		name    string
		trades  []*domain.Trade
		wantErr error
	}{
		{"empty", nil, nil},
		{"single", []*domain.Trade{{Slot: 1}}, nil},
		{"ordered", []*domain.Trade{{Slot: 1, Signature: "a"}, {Slot: 1, Signature: "b"}, {Slot: 2}}, nil},
		{"equal keys", []*domain.Trade{{Slot: 1, Signature: "a"}, {Slot: 1, Signature: "a"}}, nil},
		{"slot regression", []*domain.Trade{{Slot: 2}, {Slot: 1}}, ErrInvalidOrdering},
		{"signature regression", []*domain.Trade{{Slot: 1, Signature: "b"}, {Slot: 1, Signature: "a"}}, ErrInvalidOrdering},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTradeOrdering(tt.trades)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTradeOrdering() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
