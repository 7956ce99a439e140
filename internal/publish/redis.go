// Package publish pushes computed layouts to external consumers.
package publish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/engine"
	"solana-wallet-map/internal/logging"
)

// RedisConfig configures the Redis publisher.
type RedisConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	EnableTLS   bool
	Key         string        // Default: "walletmap:layout"
	Channel     string        // Default: "walletmap:layout"
	PingTimeout time.Duration // Default: 5s
}

// Message is the JSON document stored under Key and published on Channel.
type Message struct {
	TradeID     string                    `json:"trade_id"`
	Layout      domain.LayoutResult       `json:"layout"`
	Holders     []domain.TokenHolderStats `json:"holders"`
	ProcessedAt int64                     `json:"processed_at"` // Unix milliseconds
}

// RedisPublisher stores the latest layout under a key and publishes it on a channel.
type RedisPublisher struct {
	client  *redis.Client
	key     string
	channel string
	logger  zerolog.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if cfg.Key == "" {
		cfg.Key = "walletmap:layout"
	}
	if cfg.Channel == "" {
		cfg.Channel = "walletmap:layout"
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}

	opts := &redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger := logging.Component("redis")
	logger.Info().Str("addr", cfg.Addr).Str("channel", cfg.Channel).Msg("redis publisher connected")

	return &RedisPublisher{
		client:  client,
		key:     cfg.Key,
		channel: cfg.Channel,
		logger:  logger,
	}, nil
}

// Name implements engine.Sink.
func (p *RedisPublisher) Name() string { return "redis" }

// Publish implements engine.Sink. Updates that left the layout unchanged are skipped.
func (p *RedisPublisher) Publish(ctx context.Context, u *engine.Update) error {
	if !u.LayoutChanged {
		return nil
	}

	payload, err := json.Marshal(Message{
		TradeID:     u.TradeID,
		Layout:      u.Layout,
		Holders:     u.Holders,
		ProcessedAt: u.ProcessedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.key, payload, 0)
	pipe.Publish(ctx, p.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish layout: %w", err)
	}

	p.logger.Debug().Str("trade_id", u.TradeID).Int("bytes", len(payload)).Msg("layout published")
	return nil
}

// Latest reads the stored layout. Returns redis.Nil when nothing was published yet.
func (p *RedisPublisher) Latest(ctx context.Context) (*Message, error) {
	raw, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &msg, nil
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
