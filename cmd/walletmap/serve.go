package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"solana-wallet-map/internal/api"
	"solana-wallet-map/internal/classifier"
	"solana-wallet-map/internal/config"
	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/engine"
	"solana-wallet-map/internal/feed"
	"solana-wallet-map/internal/ingestion"
	"solana-wallet-map/internal/layout"
	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/observability"
	"solana-wallet-map/internal/presentation"
	"solana-wallet-map/internal/publish"
	"solana-wallet-map/internal/storage"
	chstore "solana-wallet-map/internal/storage/clickhouse"
	"solana-wallet-map/internal/storage/memory"
	pgstore "solana-wallet-map/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Consume the trade feed and serve the wallet map",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := logging.Component("serve")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Channel to signal main goroutine completion
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
			cancel()
		case <-done:
			return
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Error().Dur("timeout", shutdownTimeout).Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	journal, snapshots, closeStores, err := createStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	hub := presentation.NewHub(ptr(cfg.HubOptions()), logging.Component("hub"))
	defer hub.Close()
	scenes := presentation.NewSink(presentation.NewAdapter(presentation.DefaultStyle()), hub)

	layoutCfg := cfg.LayoutOptions()
	sinks := []engine.Sink{
		scenes,
		engine.NewJournalSink(journal),
		engine.NewSnapshotSink(snapshots, cfg.Storage.SnapshotInterval, layoutCfg.Bias),
	}

	if cfg.Redis.Addr != "" {
		pub, err := publish.NewRedisPublisher(ctx, publish.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Username:  cfg.Redis.Username,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			EnableTLS: cfg.Redis.EnableTLS,
			Key:       cfg.Redis.Key,
			Channel:   cfg.Redis.Channel,
		})
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	eng := engine.New(engine.Options{
		Classifier:          classifier.New(cfg.ClassifierOptions()),
		Layout:              layout.NewEngine(layoutCfg),
		Sinks:               sinks,
		SkipOffCurveWallets: cfg.Engine.SkipOffCurveWallets,
	})

	source, closeSource, err := createSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewRouter(api.Deps{
			Layout:  eng,
			Wallets: eng.Ledger(),
			Scenes:  scenes,
			Stream:  hub,
			Metrics: observability.Handler(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	httpErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
			cancel()
		}
	}()

	logger.Info().Str("feed", cfg.Feed.Kind).Msg("engine started")
	runErr := eng.Run(ctx, source)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	select {
	case err := <-httpErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	wallets := eng.Ledger().Len()
	logger.Info().Int("wallets", wallets).Msg("shutdown complete")
	return nil
}

// createStores opens the audit stores. Empty DSNs fall back to in-memory stores.
func createStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.TradeJournal, storage.HolderSnapshotStore, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var journal storage.TradeJournal = memory.NewTradeJournal()
	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, cfg.Storage.PostgresMaxConns)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, pool.Close)
		journal = pgstore.NewTradeJournal(pool)
		logger.Info().Msg("trade journal: postgres")
	} else {
		logger.Info().Msg("trade journal: memory")
	}

	var snapshots storage.HolderSnapshotStore = memory.NewHolderSnapshotStore()
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		snapshots = chstore.NewHolderSnapshotStore(conn)
		logger.Info().Msg("holder snapshots: clickhouse")
	} else {
		logger.Info().Msg("holder snapshots: memory")
	}

	return journal, snapshots, cleanup, nil
}

// createSource connects the configured trade feed.
func createSource(ctx context.Context, cfg *config.Config) (ingestion.TradeSource, func(), error) {
	switch cfg.Feed.Kind {
	case config.FeedKafka:
		src, err := ingestion.NewKafkaTradeSource(ctx, ingestion.KafkaConfig{
			Brokers:   cfg.Feed.Kafka.Brokers,
			Topic:     cfg.Feed.Kafka.Topic,
			Group:     cfg.Feed.Kafka.Group,
			ClientID:  cfg.Feed.Kafka.ClientID,
			Username:  cfg.Feed.Kafka.Username,
			Password:  cfg.Feed.Kafka.Password,
			EnableTLS: cfg.Feed.Kafka.EnableTLS,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil

	default:
		wsCfg := feed.DefaultWSConfig()
		wsCfg.APIKey = cfg.Feed.APIKey
		if cfg.Feed.ReconnectDelay > 0 {
			wsCfg.ReconnectDelay = cfg.Feed.ReconnectDelay
		}
		if cfg.Feed.MaxReconnectDelay > 0 {
			wsCfg.MaxReconnectDelay = cfg.Feed.MaxReconnectDelay
		}
		if cfg.Feed.PingInterval > 0 {
			wsCfg.PingInterval = cfg.Feed.PingInterval
		}

		client, err := feed.NewWSClient(ctx, cfg.Feed.URL, &wsCfg)
		if err != nil {
			return nil, nil, err
		}

		filter := feed.TradeFilter{Tokens: cfg.Feed.Tokens}
		for _, p := range cfg.Feed.PoolTypes {
			filter.PoolTypes = append(filter.PoolTypes, domain.PoolType(p))
		}
		return ingestion.NewWSTradeSource(client, filter), func() { _ = client.Close() }, nil
	}
}

func ptr[T any](v T) *T {
	return &v
}
