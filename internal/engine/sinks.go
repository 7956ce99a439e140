package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/layout"
	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/storage"
)

// JournalSink appends every classified trade to a trade journal.
type JournalSink struct {
	store  storage.TradeJournal
	logger zerolog.Logger
}

// NewJournalSink creates a journal sink.
func NewJournalSink(store storage.TradeJournal) *JournalSink {
	return &JournalSink{store: store, logger: logging.Component("journal")}
}

// Name implements Sink.
func (s *JournalSink) Name() string { return "journal" }

// Publish implements Sink. Replayed trades are skipped.
func (s *JournalSink) Publish(ctx context.Context, u *Update) error {
	err := s.store.Insert(ctx, u.JournalEntry())
	if errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Debug().Str("trade_id", u.TradeID).Msg("trade already journaled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// SnapshotSink writes holder statistics at most once per interval.
type SnapshotSink struct {
	store    storage.HolderSnapshotStore
	interval time.Duration
	bias     float64

	mu   sync.Mutex
	last time.Time
}

// NewSnapshotSink creates a snapshot sink. Weights are computed with bias.
func NewSnapshotSink(store storage.HolderSnapshotStore, interval time.Duration, bias float64) *SnapshotSink {
	return &SnapshotSink{store: store, interval: interval, bias: bias}
}

// Name implements Sink.
func (s *SnapshotSink) Name() string { return "snapshots" }

// Publish implements Sink.
func (s *SnapshotSink) Publish(ctx context.Context, u *Update) error {
	if len(u.Holders) == 0 {
		return nil
	}

	s.mu.Lock()
	if !s.last.IsZero() && u.ProcessedAt.Sub(s.last) < s.interval {
		s.mu.Unlock()
		return nil
	}
	s.last = u.ProcessedAt
	s.mu.Unlock()

	takenAt := u.ProcessedAt.UnixMilli()
	rows := make([]*domain.HolderSnapshot, 0, len(u.Holders))
	for _, st := range u.Holders {
		rows = append(rows, &domain.HolderSnapshot{
			TakenAt:     takenAt,
			Token:       st.Token,
			Connections: st.Connections,
			Total:       st.Total,
			Weight:      layout.Weight(s.bias, st),
		})
	}

	if err := s.store.InsertBulk(ctx, rows); err != nil {
		return fmt.Errorf("snapshot insert: %w", err)
	}
	return nil
}
