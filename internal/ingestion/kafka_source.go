package ingestion

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/observability"
)

// KafkaConfig configures the Kafka trade source.
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	Group     string
	ClientID  string
	Username  string
	Password  string
	EnableTLS bool
}

// KafkaTradeSource consumes JSON trade records from a Kafka topic.
// Offsets are committed only after a trade is handed off, so delivery is
// at-least-once.
type KafkaTradeSource struct {
	client *kgo.Client
	topic  string
	logger zerolog.Logger
}

// NewKafkaTradeSource creates a consumer group client and checks broker
// connectivity.
func NewKafkaTradeSource(ctx context.Context, cfg KafkaConfig) (*KafkaTradeSource, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.Group == "" {
		return nil, fmt.Errorf("kafka source: brokers, topic and group are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "walletmap-consumer"
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ClientID(clientID),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.AutoCommitMarks(),
		kgo.BlockRebalanceOnPoll(),
		kgo.DialTimeout(10 * time.Second),
		kgo.RequestRetries(5),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()))
	}

	if cfg.EnableTLS {
		tlsDialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 10 * time.Second}}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to kafka: %w", err)
	}

	return &KafkaTradeSource{
		client: client,
		topic:  cfg.Topic,
		logger: logging.Component("kafka-source"),
	}, nil
}

// Subscribe starts polling. Undecodable records are logged, committed and
// skipped.
func (s *KafkaTradeSource) Subscribe(ctx context.Context) (<-chan *domain.Trade, error) {
	out := make(chan *domain.Trade)

	go func() {
		defer close(out)
		for {
			fetches := s.client.PollFetches(ctx)
			if fetches.IsClientClosed() || ctx.Err() != nil {
				s.client.AllowRebalance()
				return
			}

			fetches.EachError(func(topic string, partition int32, err error) {
				s.logger.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("fetch error")
			})

			stopped := false
			fetches.EachRecord(func(rec *kgo.Record) {
				if stopped {
					return
				}
				observability.RecordFeedMessage("kafka")

				trade, err := DecodeTrade(rec.Value)
				if err != nil {
					s.logger.Warn().Err(err).Int64("offset", rec.Offset).Int32("partition", rec.Partition).Msg("skipping undecodable record")
					s.client.MarkCommitRecords(rec)
					return
				}

				select {
				case out <- trade:
					s.client.MarkCommitRecords(rec)
				case <-ctx.Done():
					stopped = true
				}
			})

			s.client.AllowRebalance()
			if stopped {
				return
			}
		}
	}()

	return out, nil
}

// Close commits marked offsets and leaves the group.
func (s *KafkaTradeSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.client.CommitMarkedOffsets(ctx)
	s.client.Close()
	if err != nil {
		return fmt.Errorf("commit offsets: %w", err)
	}
	return nil
}

// DecodeTrade parses one JSON trade record.
func DecodeTrade(value []byte) (*domain.Trade, error) {
	var t domain.Trade
	if err := json.Unmarshal(value, &t); err != nil {
		return nil, fmt.Errorf("decode trade: %w", err)
	}
	return &t, nil
}

var _ TradeSource = (*KafkaTradeSource)(nil)
