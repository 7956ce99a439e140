package domain

// TokenHolderStats aggregates the holders of a token.
// Derived from the ledger on every layout pass; never stored as state.
type TokenHolderStats struct {
	Token       string  `json:"token"`
	Connections int     `json:"connections"` // distinct qualifying wallets holding the token
	Total       float64 `json:"total"`       // sum of those wallets' balances
}

// HolderSnapshot is a point-in-time copy of holder stats for one token.
// Corresponds to holder_snapshots table in ClickHouse.
type HolderSnapshot struct {
	TakenAt     int64   // Unix timestamp in milliseconds
	Token       string  // token mint address
	Connections int     // qualifying holders
	Total       float64 // summed balance
	Weight      float64 // layout weight at snapshot time
}
