package storage

import (
	"context"

	"solana-wallet-map/internal/domain"
)

// TradeJournal provides access to trade_journal storage.
// The journal is an audit record; the ledger is never rebuilt from it.
type TradeJournal interface {
	// Insert adds a new entry. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, e *domain.JournalEntry) error

	// GetByID retrieves an entry by trade ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.JournalEntry, error)

	// GetByWallet retrieves entries for a wallet, ordered by received_at ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.JournalEntry, error)

	// GetByTimeRange retrieves entries received within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.JournalEntry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)
}

// HolderSnapshotStore provides access to holder_snapshots storage.
type HolderSnapshotStore interface {
	// InsertBulk adds multiple rows. Fails entire batch on duplicate (token, taken_at).
	InsertBulk(ctx context.Context, rows []*domain.HolderSnapshot) error

	// GetByToken retrieves all rows for a token, ordered by taken_at ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.HolderSnapshot, error)

	// GetByTimeRange retrieves rows for a token within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.HolderSnapshot, error)

	// GetLatest retrieves the rows of the most recent snapshot, ordered by weight DESC.
	GetLatest(ctx context.Context) ([]*domain.HolderSnapshot, error)
}
