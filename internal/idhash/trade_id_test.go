package idhash

import (
	"testing"

	"solana-wallet-map/internal/domain"
)

func sampleTrade() *domain.Trade {
	return &domain.Trade{
		PoolType:        domain.PoolTypeRaydiumAmm,
		TokenAddressIn:  "So11111111111111111111111111111111111111112",
		TokenAddressOut: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		TokenAmountIn:   "2000000000",
		TokenAmountOut:  "123456",
		FromWallet:      "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		Signature:       "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7",
		Slot:            250000000,
	}
}

func TestComputeTradeID(t *testing.T) {
	got := ComputeTradeID(sampleTrade())

	if len(got) != 64 {
		t.Errorf("ComputeTradeID() length = %d, want 64", len(got))
	}

	// Verify determinism: same inputs should produce same output
	if got2 := ComputeTradeID(sampleTrade()); got != got2 {
		t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID(sampleTrade())

	mutations := map[string]func(*domain.Trade){
		"pool type":  func(tr *domain.Trade) { tr.PoolType = domain.PoolTypePumpFunAmm },
		"token in":   func(tr *domain.Trade) { tr.TokenAddressIn = "other" },
		"token out":  func(tr *domain.Trade) { tr.TokenAddressOut = "other" },
		"amount in":  func(tr *domain.Trade) { tr.TokenAmountIn = "1" },
		"amount out": func(tr *domain.Trade) { tr.TokenAmountOut = "1" },
		"wallet":     func(tr *domain.Trade) { tr.FromWallet = "other" },
		"signature":  func(tr *domain.Trade) { tr.Signature = "" },
		"slot":       func(tr *domain.Trade) { tr.Slot++ },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			tr := sampleTrade()
			mutate(tr)
			if got := ComputeTradeID(tr); got == base {
				t.Errorf("changing %s should change the trade ID", name)
			}
		})
	}
}

func TestComputeTradeID_IgnoresTimestamp(t *testing.T) {
	a := sampleTrade()
	b := sampleTrade()
	b.Timestamp = 1704067234567

	if ComputeTradeID(a) != ComputeTradeID(b) {
		t.Error("receive timestamp should not affect the trade ID")
	}
}
