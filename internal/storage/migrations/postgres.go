package migrations

import (
	"context"
	"fmt"
	"io/fs"

	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order.
// Every statement must be an idempotent CREATE on a journal table.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	logger := logging.Component("migrations")

	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return fmt.Errorf("read embedded postgres migrations: %w", err)
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		stmts, err := parseMigration(string(data), postgresTables)
		if err != nil {
			return fmt.Errorf("validate migration %s: %w", file, err)
		}
		for _, stmt := range stmts {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
		logger.Info().Str("db", "postgres").Str("file", file).Int("statements", len(stmts)).Msg("applied migration")
	}

	return nil
}
