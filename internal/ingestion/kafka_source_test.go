package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-map/internal/domain"
)

func TestDecodeTrade(t *testing.T) {
	raw := []byte(`{
		"pool_type": "PumpFun",
		"token_address_in": "So11111111111111111111111111111111111111112",
		"token_address_out": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		"token_amount_in": "2000000000",
		"token_amount_out": "31337",
		"from_wallet": "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		"slot": 250000000
	}`)

	trade, err := DecodeTrade(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.PoolTypePumpFun, trade.PoolType)
	assert.Equal(t, "2000000000", trade.TokenAmountIn)
	assert.Equal(t, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", trade.FromWallet)
	assert.Equal(t, int64(250000000), trade.Slot)
	assert.Empty(t, trade.Signature)
}

func TestDecodeTrade_Invalid(t *testing.T) {
	_, err := DecodeTrade([]byte(`{"pool_type":`))
	assert.Error(t, err)
}

func TestNewKafkaTradeSource_RequiresConfig(t *testing.T) {
	cases := []KafkaConfig{
		{Topic: "trades", Group: "g"},
		{Brokers: []string{"localhost:9092"}, Group: "g"},
		{Brokers: []string{"localhost:9092"}, Topic: "trades"},
	}
	for _, cfg := range cases {
		_, err := NewKafkaTradeSource(context.Background(), cfg)
		assert.Error(t, err)
	}
}
