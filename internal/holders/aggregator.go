// Package holders derives per-token holder statistics from ledger snapshots.
package holders

import "solana-wallet-map/internal/domain"

// DefaultMinTokens is the number of distinct tokens a wallet must hold to be counted.
// Wallets below it are treated as incidental holders.
const DefaultMinTokens = 5

// Stats is the result of one aggregation pass, ordered by first encounter.
type Stats struct {
	order   []string
	byToken map[string]*domain.TokenHolderStats
}

// Compute aggregates holder statistics over wallets holding at least minTokens tokens.
// Every call starts from scratch; no state is carried between passes.
func Compute(wallets []domain.WalletBalance, minTokens int) *Stats {
	s := &Stats{byToken: make(map[string]*domain.TokenHolderStats)}

	for i := range wallets {
		w := &wallets[i]
		if w.TokenCount() < minTokens {
			continue
		}
		for _, b := range w.Balances {
			st, ok := s.byToken[b.Token]
			if !ok {
				st = &domain.TokenHolderStats{Token: b.Token}
				s.byToken[b.Token] = st
				s.order = append(s.order, b.Token)
			}
			st.Connections++
			st.Total += b.Amount
		}
	}

	return s
}

// Len returns the number of aggregated tokens.
func (s *Stats) Len() int {
	return len(s.order)
}

// Get returns the stats of one token.
func (s *Stats) Get(token string) (domain.TokenHolderStats, bool) {
	st, ok := s.byToken[token]
	if !ok {
		return domain.TokenHolderStats{}, false
	}
	return *st, true
}

// List returns all stats in first-encounter order.
func (s *Stats) List() []domain.TokenHolderStats {
	result := make([]domain.TokenHolderStats, 0, len(s.order))
	for _, token := range s.order {
		result = append(result, *s.byToken[token])
	}
	return result
}
