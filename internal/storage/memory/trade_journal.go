package memory

import (
	"context"
	"sort"
	"sync"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/storage"
)

// TradeJournal is an in-memory implementation of storage.TradeJournal.
type TradeJournal struct {
	mu   sync.RWMutex
	data map[string]*domain.JournalEntry // keyed by trade_id
}

// NewTradeJournal creates a new in-memory trade journal.
func NewTradeJournal() *TradeJournal {
	return &TradeJournal{
		data: make(map[string]*domain.JournalEntry),
	}
}

// Insert adds a new entry. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeJournal) Insert(_ context.Context, e *domain.JournalEntry) error {
	if e == nil || e.TradeID == "" || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	entryCopy := *e
	s.data[e.TradeID] = &entryCopy
	return nil
}

// GetByID retrieves an entry by trade ID. Returns ErrNotFound if not exists.
func (s *TradeJournal) GetByID(_ context.Context, tradeID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	entryCopy := *e
	return &entryCopy, nil
}

// GetByWallet retrieves entries for a wallet, ordered by received_at ASC.
func (s *TradeJournal) GetByWallet(_ context.Context, wallet string) ([]*domain.JournalEntry, error) {
	return s.filter(func(e *domain.JournalEntry) bool {
		return e.Wallet == wallet
	}), nil
}

// GetByTimeRange retrieves entries received within [start, end] (inclusive).
func (s *TradeJournal) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.JournalEntry, error) {
	return s.filter(func(e *domain.JournalEntry) bool {
		return e.ReceivedAt >= start && e.ReceivedAt <= end
	}), nil
}

// Count returns the number of stored entries.
func (s *TradeJournal) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}

func (s *TradeJournal) filter(match func(*domain.JournalEntry) bool) []*domain.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.JournalEntry
	for _, e := range s.data {
		if match(e) {
			entryCopy := *e
			result = append(result, &entryCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ReceivedAt != result[j].ReceivedAt {
			return result[i].ReceivedAt < result[j].ReceivedAt
		}
		return result[i].TradeID < result[j].TradeID
	})

	return result
}

var _ storage.TradeJournal = (*TradeJournal)(nil)
