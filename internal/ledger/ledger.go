// Package ledger keeps the per-wallet token balances derived from eligible trades.
package ledger

import (
	"sync"

	"solana-wallet-map/internal/classifier"
	"solana-wallet-map/internal/domain"
)

// Outcome describes what Apply did to the ledger.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"   // first trade of a new wallet
	OutcomeInserted  Outcome = "inserted"  // known wallet bought a new token
	OutcomeIncreased Outcome = "increased" // buy on a held token
	OutcomeDecreased Outcome = "decreased" // sell leaving a positive balance
	OutcomeRemoved   Outcome = "removed"   // sell pruning the balance
	OutcomeIgnored   Outcome = "ignored"   // sell of an untracked balance, or an empty buy
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	return string(o)
}

// Changed reports whether the outcome mutated the ledger.
func (o Outcome) Changed() bool {
	return o != OutcomeIgnored
}

// wallet holds balances in first-insertion order.
type wallet struct {
	tokens   []string
	balances map[string]float64
}

func newWallet() *wallet {
	return &wallet{balances: make(map[string]float64)}
}

func (w *wallet) set(token string, amount float64) {
	if _, ok := w.balances[token]; !ok {
		w.tokens = append(w.tokens, token)
	}
	w.balances[token] = amount
}

func (w *wallet) remove(token string) {
	delete(w.balances, token)
	for i, t := range w.tokens {
		if t == token {
			w.tokens = append(w.tokens[:i], w.tokens[i+1:]...)
			return
		}
	}
}

func (w *wallet) snapshot(address string) domain.WalletBalance {
	balances := make([]domain.TokenBalance, 0, len(w.tokens))
	for _, t := range w.tokens {
		balances = append(balances, domain.TokenBalance{Token: t, Amount: w.balances[t]})
	}
	return domain.WalletBalance{Address: address, Balances: balances}
}

// Ledger maps wallets to their token balances.
// Wallets iterate in first-seen order and are never removed.
// Safe for concurrent use; each Apply is atomic.
type Ledger struct {
	mu      sync.RWMutex
	order   []string
	wallets map[string]*wallet
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		wallets: make(map[string]*wallet),
	}
}

// Apply updates the ledger with a classified trade.
// A sell from a wallet that was never seen is dropped without creating it.
func (l *Ledger) Apply(c classifier.Classification) Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, seen := l.wallets[c.Wallet]
	if !seen {
		if !c.IsBuy || c.Amount <= 0 {
			return OutcomeIgnored
		}
		w = newWallet()
		w.set(c.Token, c.Amount)
		l.wallets[c.Wallet] = w
		l.order = append(l.order, c.Wallet)
		return OutcomeCreated
	}

	balance, holds := w.balances[c.Token]
	if !holds {
		if !c.IsBuy || c.Amount <= 0 {
			return OutcomeIgnored
		}
		w.set(c.Token, c.Amount)
		return OutcomeInserted
	}

	if c.IsBuy {
		w.set(c.Token, balance+c.Amount)
		return OutcomeIncreased
	}

	remaining := balance - c.Amount
	if remaining <= 0 {
		w.remove(c.Token)
		return OutcomeRemoved
	}
	w.set(c.Token, remaining)
	return OutcomeDecreased
}

// Wallet returns a copy of one wallet's balances.
func (l *Ledger) Wallet(address string) (domain.WalletBalance, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	w, ok := l.wallets[address]
	if !ok {
		return domain.WalletBalance{}, false
	}
	return w.snapshot(address), true
}

// Len returns the number of wallets ever seen.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Snapshot returns a deep copy of all wallets in first-seen order.
func (l *Ledger) Snapshot() []domain.WalletBalance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.WalletBalance, 0, len(l.order))
	for _, address := range l.order {
		result = append(result, l.wallets[address].snapshot(address))
	}
	return result
}
