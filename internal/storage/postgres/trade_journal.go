package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/observability"
	"solana-wallet-map/internal/storage"
)

// TradeJournal implements storage.TradeJournal using PostgreSQL.
type TradeJournal struct {
	pool *Pool
}

// NewTradeJournal creates a new TradeJournal.
func NewTradeJournal(pool *Pool) *TradeJournal {
	return &TradeJournal{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeJournal = (*TradeJournal)(nil)

const journalColumns = `
	trade_id, wallet, token, side, amount,
	pool_type, signature, slot, outcome, received_at
`

// Insert adds a new entry. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeJournal) Insert(ctx context.Context, e *domain.JournalEntry) (err error) {
	if e == nil || e.TradeID == "" || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_trade_journal", time.Since(start).Seconds(), err)
	}()

	query := `
		INSERT INTO trade_journal (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		e.TradeID, e.Wallet, e.Token, e.Side, e.Amount,
		string(e.PoolType), e.Signature, e.Slot, e.Outcome, e.ReceivedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by trade ID. Returns ErrNotFound if not exists.
func (s *TradeJournal) GetByID(ctx context.Context, tradeID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM trade_journal WHERE trade_id = $1`

	e, err := scanJournalEntry(s.pool.QueryRow(ctx, query, tradeID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get journal entry by id: %w", err)
	}
	return e, nil
}

// GetByWallet retrieves entries for a wallet, ordered by received_at ASC.
func (s *TradeJournal) GetByWallet(ctx context.Context, wallet string) ([]*domain.JournalEntry, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM trade_journal
		WHERE wallet = $1
		ORDER BY received_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get journal entries by wallet: %w", err)
	}
	defer rows.Close()

	return scanJournalEntries(rows)
}

// GetByTimeRange retrieves entries received within [start, end] (inclusive).
func (s *TradeJournal) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.JournalEntry, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM trade_journal
		WHERE received_at >= $1 AND received_at <= $2
		ORDER BY received_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get journal entries by time range: %w", err)
	}
	defer rows.Close()

	return scanJournalEntries(rows)
}

// Count returns the number of stored entries.
func (s *TradeJournal) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM trade_journal`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

// scanJournalEntry scans a single row into a JournalEntry.
func scanJournalEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	var poolType string

	err := row.Scan(
		&e.TradeID, &e.Wallet, &e.Token, &e.Side, &e.Amount,
		&poolType, &e.Signature, &e.Slot, &e.Outcome, &e.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}

	e.PoolType = domain.PoolType(poolType)
	return &e, nil
}

// scanJournalEntries scans multiple rows into a slice of JournalEntry.
func scanJournalEntries(rows pgx.Rows) ([]*domain.JournalEntry, error) {
	var entries []*domain.JournalEntry

	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entry rows: %w", err)
	}

	return entries, nil
}
