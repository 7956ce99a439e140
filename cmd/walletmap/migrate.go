package main

import (
	"errors"

	"github.com/spf13/cobra"

	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/storage/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply embedded Postgres and ClickHouse migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "" {
			return errors.New("storage.postgres_dsn or storage.clickhouse_dsn is required")
		}

		logger := logging.Component("migrate")
		if err := migrations.Run(cmd.Context(), cfg.Storage.PostgresDSN, cfg.Storage.ClickhouseDSN); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
		return nil
	},
}
