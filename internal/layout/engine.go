// Package layout places wallets and tokens on two concentric rings and
// connects each wallet to the tokens it holds.
package layout

import (
	"math"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/holders"
	"solana-wallet-map/internal/solana"
)

// Config configures ring geometry and token weighting.
type Config struct {
	WalletRadius float64 // inner ring
	TokenRadius  float64 // outer ring
	CenterX      float64
	CenterY      float64
	// Bias splits token weight between holder count (Bias) and log-scaled total (1-Bias).
	Bias float64
	// MinTokens is the holder aggregation threshold, see holders.Compute.
	MinTokens int
}

// DefaultConfig returns the default canvas geometry.
func DefaultConfig() Config {
	return Config{
		WalletRadius: 250,
		TokenRadius:  400,
		CenterX:      600,
		CenterY:      400,
		Bias:         0.7,
		MinTokens:    holders.DefaultMinTokens,
	}
}

// Engine computes layouts.
type Engine struct {
	cfg Config
}

// NewEngine creates a layout engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Build aggregates holder stats and lays out the given ledger snapshot.
// Every wallet gets a node; only aggregated tokens do. Edges come from the raw
// balances, so some may point at tokens without a node.
func (e *Engine) Build(wallets []domain.WalletBalance) (domain.LayoutResult, *holders.Stats) {
	stats := holders.Compute(wallets, e.cfg.MinTokens)
	result := domain.EmptyLayout()

	walletCount := len(wallets)
	for i, w := range wallets {
		x, y := e.ringPosition(e.cfg.WalletRadius, i, walletCount)
		result.WalletNodes = append(result.WalletNodes, domain.LayoutNode{
			ID:    w.Address,
			Label: solana.ShortAddress(w.Address),
			X:     x,
			Y:     y,
			Type:  domain.NodeTypeWallet,
		})
	}

	tokens := stats.List()
	tokenCount := len(tokens)
	for i, st := range tokens {
		x, y := e.ringPosition(e.cfg.TokenRadius, i, tokenCount)
		weight := Weight(e.cfg.Bias, st)
		result.TokenNodes = append(result.TokenNodes, domain.LayoutNode{
			ID:     st.Token,
			Label:  solana.ShortAddress(st.Token),
			X:      x,
			Y:      y,
			Type:   domain.NodeTypeToken,
			Weight: &weight,
		})
	}

	for _, w := range wallets {
		for _, b := range w.Balances {
			result.Edges = append(result.Edges, domain.LayoutEdge{Source: w.Address, Target: b.Token})
		}
	}

	return result, stats
}

// ringPosition returns the i-th of n evenly spaced points on a ring.
// Callers only pass i < n, so n is never zero here.
func (e *Engine) ringPosition(radius float64, i, n int) (float64, float64) {
	angle := 2 * math.Pi * float64(i) / float64(n)
	return e.cfg.CenterX + radius*math.Cos(angle), e.cfg.CenterY + radius*math.Sin(angle)
}

// Weight scores a token for display sizing. log10(total+1) keeps a zero total finite.
func Weight(bias float64, st domain.TokenHolderStats) float64 {
	return bias*float64(st.Connections) + (1-bias)*math.Log10(st.Total+1)
}
