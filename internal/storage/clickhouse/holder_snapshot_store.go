package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/observability"
	"solana-wallet-map/internal/storage"
)

// HolderSnapshotStore implements storage.HolderSnapshotStore using ClickHouse.
type HolderSnapshotStore struct {
	conn *Conn
}

// NewHolderSnapshotStore creates a new HolderSnapshotStore.
func NewHolderSnapshotStore(conn *Conn) *HolderSnapshotStore {
	return &HolderSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HolderSnapshotStore = (*HolderSnapshotStore)(nil)

const snapshotColumns = `taken_at, token, connections, total, weight`

// InsertBulk adds multiple rows. Fails entire batch on duplicate (token, taken_at).
// MergeTree does not enforce keys, so duplicates are checked before insert.
func (s *HolderSnapshotStore) InsertBulk(ctx context.Context, rows []*domain.HolderSnapshot) (err error) {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_holder_snapshots", time.Since(start).Seconds(), err)
	}()

	// Check for intra-batch duplicates
	type key struct {
		token   string
		takenAt int64
	}
	seen := make(map[key]struct{}, len(rows))
	takenAts := make(map[int64]struct{})
	for _, r := range rows {
		if r == nil || r.Token == "" {
			return storage.ErrInvalidInput
		}
		k := key{r.Token, r.TakenAt}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		takenAts[r.TakenAt] = struct{}{}
	}

	// Check for duplicates against existing rows, one query per snapshot time
	for takenAt := range takenAts {
		existing, err := s.tokensAt(ctx, takenAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, token := range existing {
			if _, dup := seen[key{token, takenAt}]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO holder_snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			uint64(r.TakenAt), r.Token, uint32(r.Connections),
			r.Total, r.Weight,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves all rows for a token, ordered by taken_at ASC.
func (s *HolderSnapshotStore) GetByToken(ctx context.Context, token string) ([]*domain.HolderSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM holder_snapshots
		WHERE token = ?
		ORDER BY taken_at ASC
	`

	rows, err := s.conn.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("query by token: %w", err)
	}
	defer rows.Close()

	return scanHolderSnapshots(rows)
}

// GetByTimeRange retrieves rows for a token within [start, end] (inclusive).
func (s *HolderSnapshotStore) GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.HolderSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM holder_snapshots
		WHERE token = ? AND taken_at >= ? AND taken_at <= ?
		ORDER BY taken_at ASC
	`

	rows, err := s.conn.Query(ctx, query, token, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanHolderSnapshots(rows)
}

// GetLatest retrieves the rows of the most recent snapshot, ordered by weight DESC.
func (s *HolderSnapshotStore) GetLatest(ctx context.Context) ([]*domain.HolderSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM holder_snapshots
		WHERE taken_at = (SELECT max(taken_at) FROM holder_snapshots)
		ORDER BY weight DESC, token ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	return scanHolderSnapshots(rows)
}

// tokensAt returns the tokens already stored for a snapshot time.
func (s *HolderSnapshotStore) tokensAt(ctx context.Context, takenAt int64) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT token FROM holder_snapshots WHERE taken_at = ?`, uint64(takenAt))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// scanHolderSnapshots scans multiple rows.
func scanHolderSnapshots(rows chRows) ([]*domain.HolderSnapshot, error) {
	var result []*domain.HolderSnapshot

	for rows.Next() {
		var r domain.HolderSnapshot
		var takenAt uint64
		var connections uint32

		if err := rows.Scan(&takenAt, &r.Token, &connections, &r.Total, &r.Weight); err != nil {
			return nil, fmt.Errorf("scan holder snapshot row: %w", err)
		}

		r.TakenAt = int64(takenAt)
		r.Connections = int(connections)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holder snapshot rows: %w", err)
	}

	return result, nil
}
