package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/solana"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, FeedWebsocket, cfg.Feed.Kind)
	assert.Equal(t, solana.WSOLMint, cfg.Classifier.QuoteMint)
	assert.Equal(t, int32(9), cfg.Classifier.QuoteDecimals)
	assert.ElementsMatch(t, []string{"RaydiumLaunchpad", "PumpFunAmm"}, cfg.Classifier.BondingCurvePools)
	assert.Equal(t, 250.0, cfg.Layout.WalletRadius)
	assert.Equal(t, 400.0, cfg.Layout.TokenRadius)
	assert.Equal(t, 0.7, cfg.Layout.Bias)
	assert.Equal(t, time.Minute, cfg.Storage.SnapshotInterval)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 16, cfg.Hub.SendBuffer)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  pretty: true
feed:
  kind: kafka
  kafka:
    brokers: ["localhost:9092"]
    topic: dex-trades
layout:
  bias: 0.5
  min_tokens: 2
storage:
  snapshot_interval: 30s
engine:
  skip_off_curve_wallets: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, FeedKafka, cfg.Feed.Kind)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Feed.Kafka.Brokers)
	assert.Equal(t, "dex-trades", cfg.Feed.Kafka.Topic)
	assert.Equal(t, "walletmap", cfg.Feed.Kafka.Group)
	assert.Equal(t, 0.5, cfg.Layout.Bias)
	assert.Equal(t, 2, cfg.Layout.MinTokens)
	assert.Equal(t, 30*time.Second, cfg.Storage.SnapshotInterval)
	assert.True(t, cfg.Engine.SkipOffCurveWallets)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WALLETMAP_FEED_URL", "wss://feed.example/ws")
	t.Setenv("WALLETMAP_LAYOUT_BIAS", "0.25")
	t.Setenv("WALLETMAP_REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "wss://feed.example/ws", cfg.Feed.URL)
	assert.Equal(t, 0.25, cfg.Layout.Bias)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Feed.URL = "wss://feed.example/ws"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown feed kind", func(c *Config) { c.Feed.Kind = "grpc" }, "feed.kind"},
		{"websocket without url", func(c *Config) { c.Feed.URL = "" }, "feed.url"},
		{"kafka without brokers", func(c *Config) { c.Feed.Kind = FeedKafka }, "feed.kafka.brokers"},
		{"empty quote mint", func(c *Config) { c.Classifier.QuoteMint = "" }, "classifier.quote_mint"},
		{"invalid quote mint", func(c *Config) { c.Classifier.QuoteMint = "not-base58-0OIl" }, "classifier.quote_mint"},
		{"bias above one", func(c *Config) { c.Layout.Bias = 1.5 }, "layout.bias"},
		{"negative bias", func(c *Config) { c.Layout.Bias = -0.1 }, "layout.bias"},
		{"zero wallet radius", func(c *Config) { c.Layout.WalletRadius = 0 }, "layout.wallet_radius"},
		{"negative token radius", func(c *Config) { c.Layout.TokenRadius = -1 }, "layout.token_radius"},
		{"negative threshold", func(c *Config) { c.Layout.MinTokens = -1 }, "layout.min_tokens"},
		{"zero send buffer", func(c *Config) { c.Hub.SendBuffer = 0 }, "hub.send_buffer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateEngine(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Feed.URL = ""
	cfg.Hub.SendBuffer = 0

	require.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateEngine())

	cfg.Layout.Bias = 1.5
	cfg.Classifier.QuoteMint = ""
	err = cfg.ValidateEngine()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout.bias")
	assert.Contains(t, err.Error(), "classifier.quote_mint")
	assert.NotContains(t, err.Error(), "feed.url")
}

func TestConversions(t *testing.T) {
	cfg := validConfig(t)

	cls := cfg.ClassifierOptions()
	assert.Equal(t, solana.WSOLMint, cls.QuoteMint)
	assert.Contains(t, cls.BondingCurvePools, domain.PoolTypePumpFunAmm)

	lay := cfg.LayoutOptions()
	assert.Equal(t, cfg.Layout.Bias, lay.Bias)
	assert.Equal(t, cfg.Layout.CenterX, lay.CenterX)

	hub := cfg.HubOptions()
	assert.Equal(t, cfg.Hub.SendBuffer, hub.SendBuffer)
	assert.Equal(t, 10*time.Second, hub.WriteTimeout)
}
