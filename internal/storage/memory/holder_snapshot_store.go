package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/storage"
)

// HolderSnapshotStore is an in-memory implementation of storage.HolderSnapshotStore.
type HolderSnapshotStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.HolderSnapshot // keyed by (token, taken_at)
	latest int64
}

// NewHolderSnapshotStore creates a new in-memory holder snapshot store.
func NewHolderSnapshotStore() *HolderSnapshotStore {
	return &HolderSnapshotStore{
		data: make(map[string]*domain.HolderSnapshot),
	}
}

// snapshotKey generates a unique key for a snapshot row.
func snapshotKey(token string, takenAt int64) string {
	return fmt.Sprintf("%s|%d", token, takenAt)
}

// InsertBulk adds multiple rows. Fails entire batch on duplicate.
func (s *HolderSnapshotStore) InsertBulk(_ context.Context, rows []*domain.HolderSnapshot) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(rows))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range rows {
		if r == nil || r.Token == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(r.Token, r.TakenAt)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range rows {
		rowCopy := *r
		s.data[snapshotKey(r.Token, r.TakenAt)] = &rowCopy
		if r.TakenAt > s.latest {
			s.latest = r.TakenAt
		}
	}

	return nil
}

// GetByToken retrieves all rows for a token, ordered by taken_at ASC.
func (s *HolderSnapshotStore) GetByToken(_ context.Context, token string) ([]*domain.HolderSnapshot, error) {
	result := s.filter(func(r *domain.HolderSnapshot) bool {
		return r.Token == token
	})
	sortByTakenAt(result)
	return result, nil
}

// GetByTimeRange retrieves rows for a token within [start, end] (inclusive).
func (s *HolderSnapshotStore) GetByTimeRange(_ context.Context, token string, start, end int64) ([]*domain.HolderSnapshot, error) {
	result := s.filter(func(r *domain.HolderSnapshot) bool {
		return r.Token == token && r.TakenAt >= start && r.TakenAt <= end
	})
	sortByTakenAt(result)
	return result, nil
}

// GetLatest retrieves the rows of the most recent snapshot, ordered by weight DESC.
func (s *HolderSnapshotStore) GetLatest(_ context.Context) ([]*domain.HolderSnapshot, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == 0 {
		return nil, nil
	}

	result := s.filter(func(r *domain.HolderSnapshot) bool {
		return r.TakenAt == latest
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weight != result[j].Weight {
			return result[i].Weight > result[j].Weight
		}
		return result[i].Token < result[j].Token
	})
	return result, nil
}

func (s *HolderSnapshotStore) filter(match func(*domain.HolderSnapshot) bool) []*domain.HolderSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.HolderSnapshot
	for _, r := range s.data {
		if match(r) {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}
	return result
}

func sortByTakenAt(rows []*domain.HolderSnapshot) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TakenAt < rows[j].TakenAt
	})
}

var _ storage.HolderSnapshotStore = (*HolderSnapshotStore)(nil)
