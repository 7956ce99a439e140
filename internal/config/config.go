// Package config loads service configuration from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"solana-wallet-map/internal/classifier"
	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/layout"
	"solana-wallet-map/internal/presentation"
	"solana-wallet-map/internal/solana"
)

// EnvPrefix is prepended to environment overrides, e.g. WALLETMAP_FEED_URL.
const EnvPrefix = "WALLETMAP"

// Feed source kinds.
const (
	FeedWebsocket = "websocket"
	FeedKafka     = "kafka"
)

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type KafkaConfig struct {
	Brokers   []string `mapstructure:"brokers"`
	Topic     string   `mapstructure:"topic"`
	Group     string   `mapstructure:"group"`
	ClientID  string   `mapstructure:"client_id"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	EnableTLS bool     `mapstructure:"enable_tls"`
}

type FeedConfig struct {
	Kind              string        `mapstructure:"kind"`
	URL               string        `mapstructure:"url"`
	APIKey            string        `mapstructure:"api_key"`
	PoolTypes         []string      `mapstructure:"pool_types"`
	Tokens            []string      `mapstructure:"tokens"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectDelay time.Duration `mapstructure:"max_reconnect_delay"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	Kafka             KafkaConfig   `mapstructure:"kafka"`
}

type ClassifierConfig struct {
	QuoteMint         string   `mapstructure:"quote_mint"`
	BondingCurvePools []string `mapstructure:"bonding_curve_pools"`
	QuoteDecimals     int32    `mapstructure:"quote_decimals"`
}

type LayoutConfig struct {
	WalletRadius float64 `mapstructure:"wallet_radius"`
	TokenRadius  float64 `mapstructure:"token_radius"`
	CenterX      float64 `mapstructure:"center_x"`
	CenterY      float64 `mapstructure:"center_y"`
	Bias         float64 `mapstructure:"bias"`
	MinTokens    int     `mapstructure:"min_tokens"`
}

type EngineConfig struct {
	SkipOffCurveWallets bool `mapstructure:"skip_off_curve_wallets"`
}

type StorageConfig struct {
	PostgresDSN      string        `mapstructure:"postgres_dsn"`
	PostgresMaxConns int32         `mapstructure:"postgres_max_conns"`
	ClickhouseDSN    string        `mapstructure:"clickhouse_dsn"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	EnableTLS bool   `mapstructure:"enable_tls"`
	Key       string `mapstructure:"key"`
	Channel   string `mapstructure:"channel"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type HubConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	SendBuffer   int           `mapstructure:"send_buffer"`
}

// Config is the full service configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Layout     LayoutConfig     `mapstructure:"layout"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Hub        HubConfig        `mapstructure:"hub"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	cls := classifier.DefaultConfig()
	lay := layout.DefaultConfig()
	hub := presentation.DefaultHubConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("feed.kind", FeedWebsocket)
	v.SetDefault("feed.url", "")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.reconnect_delay", time.Second)
	v.SetDefault("feed.max_reconnect_delay", 30*time.Second)
	v.SetDefault("feed.ping_interval", 30*time.Second)
	v.SetDefault("feed.pool_types", []string{})
	v.SetDefault("feed.tokens", []string{})
	v.SetDefault("feed.kafka.brokers", []string{})
	v.SetDefault("feed.kafka.topic", "trades")
	v.SetDefault("feed.kafka.group", "walletmap")
	v.SetDefault("feed.kafka.client_id", "walletmap")
	v.SetDefault("feed.kafka.username", "")
	v.SetDefault("feed.kafka.password", "")
	v.SetDefault("feed.kafka.enable_tls", false)

	pools := make([]string, len(cls.BondingCurvePools))
	for i, p := range cls.BondingCurvePools {
		pools[i] = p.String()
	}
	v.SetDefault("classifier.quote_mint", cls.QuoteMint)
	v.SetDefault("classifier.bonding_curve_pools", pools)
	v.SetDefault("classifier.quote_decimals", cls.QuoteDecimals)

	v.SetDefault("layout.wallet_radius", lay.WalletRadius)
	v.SetDefault("layout.token_radius", lay.TokenRadius)
	v.SetDefault("layout.center_x", lay.CenterX)
	v.SetDefault("layout.center_y", lay.CenterY)
	v.SetDefault("layout.bias", lay.Bias)
	v.SetDefault("layout.min_tokens", lay.MinTokens)

	v.SetDefault("engine.skip_off_curve_wallets", false)

	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.postgres_max_conns", 0)
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.snapshot_interval", time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enable_tls", false)
	v.SetDefault("redis.key", "walletmap:layout")
	v.SetDefault("redis.channel", "walletmap:layout")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("hub.write_timeout", hub.WriteTimeout)
	v.SetDefault("hub.ping_interval", hub.PingInterval)
	v.SetDefault("hub.send_buffer", hub.SendBuffer)
}

// Load reads configuration into a fresh viper instance. path may be empty.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith reads configuration using v, which may already carry bound flags.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// sets e.g. WALLETMAP_FEED_URL to feed.url
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	switch c.Feed.Kind {
	case FeedWebsocket:
		if c.Feed.URL == "" {
			errs = append(errs, errors.New("feed.url is required for websocket feed"))
		}
	case FeedKafka:
		if len(c.Feed.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("feed.kafka.brokers is required for kafka feed"))
		}
		if c.Feed.Kafka.Topic == "" {
			errs = append(errs, errors.New("feed.kafka.topic is required for kafka feed"))
		}
	default:
		errs = append(errs, fmt.Errorf("feed.kind %q is not one of %s, %s", c.Feed.Kind, FeedWebsocket, FeedKafka))
	}

	if err := c.ValidateEngine(); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.PostgresMaxConns < 0 {
		errs = append(errs, errors.New("storage.postgres_max_conns must not be negative"))
	}
	if c.Storage.SnapshotInterval < 0 {
		errs = append(errs, errors.New("storage.snapshot_interval must not be negative"))
	}
	if c.Hub.SendBuffer <= 0 {
		errs = append(errs, errors.New("hub.send_buffer must be positive"))
	}

	return errors.Join(errs...)
}

// ValidateEngine checks the classifier and layout sections only. Offline
// replay uses it since it needs no feed, storage or hub.
func (c *Config) ValidateEngine() error {
	var errs []error

	if c.Classifier.QuoteMint == "" {
		errs = append(errs, errors.New("classifier.quote_mint is required"))
	} else if err := solana.ValidateAddress(c.Classifier.QuoteMint); err != nil {
		errs = append(errs, fmt.Errorf("classifier.quote_mint: %w", err))
	}
	if c.Classifier.QuoteDecimals < 0 {
		errs = append(errs, errors.New("classifier.quote_decimals must not be negative"))
	}

	if c.Layout.Bias < 0 || c.Layout.Bias > 1 {
		errs = append(errs, fmt.Errorf("layout.bias %v outside [0,1]", c.Layout.Bias))
	}
	if c.Layout.WalletRadius <= 0 {
		errs = append(errs, errors.New("layout.wallet_radius must be positive"))
	}
	if c.Layout.TokenRadius <= 0 {
		errs = append(errs, errors.New("layout.token_radius must be positive"))
	}
	if c.Layout.MinTokens < 0 {
		errs = append(errs, errors.New("layout.min_tokens must not be negative"))
	}

	return errors.Join(errs...)
}

// ClassifierOptions converts the classifier section.
func (c *Config) ClassifierOptions() classifier.Config {
	pools := make([]domain.PoolType, len(c.Classifier.BondingCurvePools))
	for i, p := range c.Classifier.BondingCurvePools {
		pools[i] = domain.PoolType(p)
	}
	return classifier.Config{
		QuoteMint:         c.Classifier.QuoteMint,
		BondingCurvePools: pools,
		QuoteDecimals:     c.Classifier.QuoteDecimals,
	}
}

// LayoutOptions converts the layout section.
func (c *Config) LayoutOptions() layout.Config {
	return layout.Config{
		WalletRadius: c.Layout.WalletRadius,
		TokenRadius:  c.Layout.TokenRadius,
		CenterX:      c.Layout.CenterX,
		CenterY:      c.Layout.CenterY,
		Bias:         c.Layout.Bias,
		MinTokens:    c.Layout.MinTokens,
	}
}

// HubOptions converts the hub section.
func (c *Config) HubOptions() presentation.HubConfig {
	return presentation.HubConfig{
		WriteTimeout: c.Hub.WriteTimeout,
		PingInterval: c.Hub.PingInterval,
		SendBuffer:   c.Hub.SendBuffer,
	}
}
