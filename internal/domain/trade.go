package domain

// PoolType tags the kind of pool a trade was executed against.
type PoolType string

// Pool types reported by the trade feed.
const (
	PoolTypeRaydiumAmm       PoolType = "RaydiumAmm"
	PoolTypeRaydiumClmm      PoolType = "RaydiumClmm"
	PoolTypeRaydiumCpmm      PoolType = "RaydiumCpmm"
	PoolTypeRaydiumLaunchpad PoolType = "RaydiumLaunchpad"
	PoolTypePumpFun          PoolType = "PumpFun"
	PoolTypePumpFunAmm       PoolType = "PumpFunAmm"
	PoolTypeMeteoraDlmm      PoolType = "MeteoraDlmm"
	PoolTypeOrcaWhirlpool    PoolType = "OrcaWhirlpool"
)

// String returns the string representation of PoolType.
func (p PoolType) String() string {
	return string(p)
}

// Trade is a raw trade record as delivered by the feed.
// Amounts are integer base-unit strings (lamports for SOL).
type Trade struct {
	PoolType        PoolType `json:"pool_type"`
	TokenAddressIn  string   `json:"token_address_in"`
	TokenAddressOut string   `json:"token_address_out"`
	TokenAmountIn   string   `json:"token_amount_in"`
	TokenAmountOut  string   `json:"token_amount_out"`
	FromWallet      string   `json:"from_wallet"`

	// Optional fields, carried when the feed provides them.
	Signature string `json:"signature,omitempty"` // transaction signature
	Slot      int64  `json:"slot,omitempty"`      // Solana slot number
	Timestamp int64  `json:"timestamp,omitempty"` // Unix timestamp in milliseconds
}

// Trade side constants
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)
