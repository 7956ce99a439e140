package domain

// TokenBalance is a single positive holding of a token by a wallet.
type TokenBalance struct {
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
}

// WalletBalance is a wallet with its current holdings.
// Balances are ordered by first insertion and every Amount is strictly positive.
type WalletBalance struct {
	Address  string         `json:"address"`
	Balances []TokenBalance `json:"balances"`
}

// Balance returns the amount held for token and whether the wallet holds it.
func (w *WalletBalance) Balance(token string) (float64, bool) {
	for _, b := range w.Balances {
		if b.Token == token {
			return b.Amount, true
		}
	}
	return 0, false
}

// TokenCount returns the number of distinct tokens held.
func (w *WalletBalance) TokenCount() int {
	return len(w.Balances)
}
