// Package migrations applies the embedded Postgres and ClickHouse schemas.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"solana-wallet-map/internal/storage/postgres"
)

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// Run applies migrations to every configured database. Empty DSNs are skipped.
func Run(ctx context.Context, postgresDSN, clickhouseDSN string) error {
	if postgresDSN != "" {
		pool, err := postgres.NewPool(ctx, postgresDSN, 0)
		if err != nil {
			return err
		}
		err = RunPostgresMigrations(ctx, pool)
		pool.Close()
		if err != nil {
			return err
		}
	}

	if clickhouseDSN != "" {
		conn, err := RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return err
		}
		if err := conn.Close(); err != nil {
			return fmt.Errorf("close clickhouse: %w", err)
		}
	}

	return nil
}

// sqlFiles lists the .sql files of dir in lexical order.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
