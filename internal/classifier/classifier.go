// Package classifier decides which raw trades affect holder balances and
// resolves the wallet, token, amount and side of the eligible ones.
package classifier

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/solana"
)

// ErrInvalidTrade is returned for trade records that violate the feed schema.
var ErrInvalidTrade = errors.New("invalid trade")

// DefaultQuoteDecimals is the decimal exponent of SOL (1 SOL = 10^9 lamports).
const DefaultQuoteDecimals = 9

// Config configures the classifier.
type Config struct {
	// QuoteMint is the quote asset every tracked pair must include.
	QuoteMint string
	// BondingCurvePools lists pool types excluded from accounting.
	BondingCurvePools []domain.PoolType
	// QuoteDecimals is the decimal exponent used to scale base-unit amounts.
	QuoteDecimals int32
}

// DefaultConfig returns the classifier configuration for SOL-quoted trades.
func DefaultConfig() Config {
	return Config{
		QuoteMint:         solana.WSOLMint,
		BondingCurvePools: []domain.PoolType{domain.PoolTypeRaydiumLaunchpad, domain.PoolTypePumpFunAmm},
		QuoteDecimals:     DefaultQuoteDecimals,
	}
}

// Classification is the ledger-facing view of an eligible trade.
type Classification struct {
	Wallet string
	Token  string
	Amount float64 // scaled quote-side amount
	IsBuy  bool
}

// Side returns "buy" or "sell".
func (c Classification) Side() string {
	if c.IsBuy {
		return domain.TradeSideBuy
	}
	return domain.TradeSideSell
}

// Classifier applies the eligibility rules.
type Classifier struct {
	quoteMint    string
	bondingCurve map[domain.PoolType]struct{}
	decimals     int32
}

// New creates a classifier from cfg.
func New(cfg Config) *Classifier {
	bonding := make(map[domain.PoolType]struct{}, len(cfg.BondingCurvePools))
	for _, p := range cfg.BondingCurvePools {
		bonding[p] = struct{}{}
	}
	return &Classifier{
		quoteMint:    cfg.QuoteMint,
		bondingCurve: bonding,
		decimals:     cfg.QuoteDecimals,
	}
}

// IsPairedWithSol reports whether the quote asset is either side of the trade.
func (c *Classifier) IsPairedWithSol(t *domain.Trade) bool {
	return t.TokenAddressIn == c.quoteMint || t.TokenAddressOut == c.quoteMint
}

// IsBondingCurveTrade reports whether the trade ran against an excluded pool kind.
func (c *Classifier) IsBondingCurveTrade(t *domain.Trade) bool {
	_, ok := c.bondingCurve[t.PoolType]
	return ok
}

// IsBuy reports whether the wallet spent the quote asset.
func (c *Classifier) IsBuy(t *domain.Trade) bool {
	return t.TokenAddressIn == c.quoteMint
}

// Eligible reports whether the trade should update the ledger.
func (c *Classifier) Eligible(t *domain.Trade) bool {
	return c.IsPairedWithSol(t) && !c.IsBondingCurveTrade(t)
}

// Classify resolves wallet, token, amount and side of an eligible trade.
// The amount is the quote side: what was spent on a buy, received on a sell.
func (c *Classifier) Classify(t *domain.Trade) (Classification, error) {
	isBuy := c.IsBuy(t)

	raw := t.TokenAmountOut
	token := t.TokenAddressIn
	if isBuy {
		raw = t.TokenAmountIn
		token = t.TokenAddressOut
	}

	amount, err := c.ScaleAmount(raw)
	if err != nil {
		return Classification{}, err
	}

	return Classification{
		Wallet: t.FromWallet,
		Token:  token,
		Amount: amount,
		IsBuy:  isBuy,
	}, nil
}

// ScaleAmount converts an integer base-unit string into a decimal-scaled quantity.
func (c *Classifier) ScaleAmount(baseUnits string) (float64, error) {
	d, err := parseBaseUnits(baseUnits)
	if err != nil {
		return 0, err
	}
	f, _ := d.Shift(-c.decimals).Float64()
	return f, nil
}

// Validate checks the fields the ledger relies on.
func (c *Classifier) Validate(t *domain.Trade) error {
	if t == nil {
		return fmt.Errorf("%w: nil trade", ErrInvalidTrade)
	}
	if t.PoolType == "" {
		return fmt.Errorf("%w: missing pool_type", ErrInvalidTrade)
	}

	addresses := []struct {
		field string
		value string
	}{
		{"token_address_in", t.TokenAddressIn},
		{"token_address_out", t.TokenAddressOut},
		{"from_wallet", t.FromWallet},
	}
	for _, a := range addresses {
		if err := solana.ValidateAddress(a.value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidTrade, a.field, err)
		}
	}

	if _, err := parseBaseUnits(t.TokenAmountIn); err != nil {
		return fmt.Errorf("token_amount_in: %w", err)
	}
	if _, err := parseBaseUnits(t.TokenAmountOut); err != nil {
		return fmt.Errorf("token_amount_out: %w", err)
	}

	return nil
}

// parseBaseUnits parses a non-negative integer string.
func parseBaseUnits(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrInvalidTrade)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", ErrInvalidTrade, s, err)
	}
	if !d.IsInteger() || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a non-negative integer", ErrInvalidTrade, s)
	}
	return d, nil
}
