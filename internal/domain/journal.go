package domain

// JournalEntry is an accepted trade as recorded in the trade journal.
// Corresponds to trade_journal table in PostgreSQL.
type JournalEntry struct {
	TradeID    string   // deterministic hash, see idhash.ComputeTradeID
	Wallet     string   // from_wallet
	Token      string   // non-quote side
	Side       string   // "buy" | "sell"
	Amount     float64  // scaled quote-side amount
	PoolType   PoolType // pool kind
	Signature  string   // transaction signature (may be empty)
	Slot       int64    // Solana slot number (0 when unknown)
	Outcome    string   // ledger outcome
	ReceivedAt int64    // Unix timestamp in milliseconds
}
