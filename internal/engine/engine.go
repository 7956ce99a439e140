// Package engine drives the wallet map: it applies each incoming trade to the
// ledger, recomputes the layout and hands the result to the configured sinks.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-map/internal/classifier"
	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/idhash"
	"solana-wallet-map/internal/ingestion"
	"solana-wallet-map/internal/layout"
	"solana-wallet-map/internal/ledger"
	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/observability"
	"solana-wallet-map/internal/solana"
)

// Update is what sinks receive for every classified trade.
type Update struct {
	TradeID        string
	Trade          *domain.Trade
	Classification classifier.Classification
	Outcome        ledger.Outcome
	// LayoutChanged is false when the ledger did not change, in which case
	// Layout and Holders repeat the previous pass.
	LayoutChanged bool
	Layout        domain.LayoutResult
	Holders       []domain.TokenHolderStats
	ProcessedAt   time.Time
}

// JournalEntry converts the update into a trade journal row.
func (u *Update) JournalEntry() *domain.JournalEntry {
	return &domain.JournalEntry{
		TradeID:    u.TradeID,
		Wallet:     u.Classification.Wallet,
		Token:      u.Classification.Token,
		Side:       u.Classification.Side(),
		Amount:     u.Classification.Amount,
		PoolType:   u.Trade.PoolType,
		Signature:  u.Trade.Signature,
		Slot:       u.Trade.Slot,
		Outcome:    u.Outcome.String(),
		ReceivedAt: u.ProcessedAt.UnixMilli(),
	}
}

// Sink consumes updates. Errors are logged and counted by the engine and
// never affect ledger state.
type Sink interface {
	Name() string
	Publish(ctx context.Context, u *Update) error
}

// Options contains configuration for creating an Engine.
type Options struct {
	Classifier *classifier.Classifier // Default: classifier.DefaultConfig()
	Ledger     *ledger.Ledger         // Default: empty ledger
	Layout     *layout.Engine         // Default: layout.DefaultConfig()
	Sinks      []Sink
	// SkipOffCurveWallets drops trades whose wallet is a program derived address.
	SkipOffCurveWallets bool
	Logger              *zerolog.Logger
	Now                 func() time.Time
}

// Engine processes trades one at a time.
type Engine struct {
	classifier   *classifier.Classifier
	ledger       *ledger.Ledger
	layout       *layout.Engine
	sinks        []Sink
	skipOffCurve bool
	logger       zerolog.Logger
	now          func() time.Time

	// process serialises HandleTrade so each trade is fully applied before the next.
	process sync.Mutex

	mu      sync.RWMutex
	latest  domain.LayoutResult
	holders []domain.TokenHolderStats
}

// New creates a new engine.
func New(opts Options) *Engine {
	c := opts.Classifier
	if c == nil {
		c = classifier.New(classifier.DefaultConfig())
	}

	l := opts.Ledger
	if l == nil {
		l = ledger.New()
	}

	le := opts.Layout
	if le == nil {
		le = layout.NewEngine(layout.DefaultConfig())
	}

	logger := logging.Component("engine")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		classifier:   c,
		ledger:       l,
		layout:       le,
		sinks:        opts.Sinks,
		skipOffCurve: opts.SkipOffCurveWallets,
		logger:       logger,
		now:          now,
		latest:       domain.EmptyLayout(),
		holders:      []domain.TokenHolderStats{},
	}
}

// Ledger returns the engine's ledger for read access.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Latest returns the most recent layout and holder stats.
func (e *Engine) Latest() (domain.LayoutResult, []domain.TokenHolderStats) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest, e.holders
}

// HandleTrade validates, classifies and applies one trade, then publishes
// the resulting layout. Malformed trades return an error wrapping
// classifier.ErrInvalidTrade; ineligible trades return nil.
func (e *Engine) HandleTrade(ctx context.Context, t *domain.Trade) error {
	e.process.Lock()
	defer e.process.Unlock()

	observability.RecordTradeReceived()

	if err := e.classifier.Validate(t); err != nil {
		observability.RecordTradeRejected("schema")
		return err
	}

	if !e.classifier.Eligible(t) {
		observability.RecordTradeIneligible()
		return nil
	}

	if e.skipOffCurve && !solana.IsOnCurve(t.FromWallet) {
		observability.RecordOffCurveSkipped()
		e.logger.Debug().Str("wallet", t.FromWallet).Msg("skipping off-curve wallet")
		return nil
	}

	c, err := e.classifier.Classify(t)
	if err != nil {
		observability.RecordTradeRejected("amount")
		return fmt.Errorf("classify: %w", err)
	}

	outcome := e.ledger.Apply(c)
	observability.RecordLedgerOutcome(outcome.String(), e.ledger.Len())

	processedAt := e.now()
	update := &Update{
		TradeID:        idhash.ComputeTradeID(t),
		Trade:          t,
		Classification: c,
		Outcome:        outcome,
		LayoutChanged:  outcome.Changed(),
		ProcessedAt:    processedAt,
	}

	if outcome.Changed() {
		update.Layout, update.Holders = e.recompute()
	} else {
		update.Layout, update.Holders = e.Latest()
	}

	e.logger.Debug().
		Str("wallet", c.Wallet).
		Str("token", c.Token).
		Str("side", c.Side()).
		Float64("amount", c.Amount).
		Str("outcome", outcome.String()).
		Msg("trade applied")

	e.publish(ctx, update)
	observability.UpdateLastTradeProcessed(processedAt.Unix())
	return nil
}

// recompute rebuilds the layout from a fresh ledger snapshot.
func (e *Engine) recompute() (domain.LayoutResult, []domain.TokenHolderStats) {
	start := time.Now()
	result, stats := e.layout.Build(e.ledger.Snapshot())
	list := stats.List()
	observability.RecordLayout(len(result.TokenNodes), len(result.Edges), time.Since(start).Seconds())

	e.mu.Lock()
	e.latest = result
	e.holders = list
	e.mu.Unlock()

	return result, list
}

func (e *Engine) publish(ctx context.Context, u *Update) {
	for _, s := range e.sinks {
		start := time.Now()
		err := s.Publish(ctx, u)
		observability.RecordSinkPublish(s.Name(), time.Since(start).Seconds(), err)
		if err != nil {
			e.logger.Warn().Err(err).Str("sink", s.Name()).Str("trade_id", u.TradeID).Msg("sink publish failed")
		}
	}
}

// Run consumes the source until the context is cancelled or the source
// closes. Trades are processed in arrival order.
func (e *Engine) Run(ctx context.Context, source ingestion.TradeSource) error {
	trades, err := source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	e.logger.Info().Msg("engine started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("engine stopping")
			return ctx.Err()

		case t, ok := <-trades:
			if !ok {
				e.logger.Info().Msg("trade source closed")
				return nil
			}
			if err := e.HandleTrade(ctx, t); err != nil {
				ev := e.logger.Warn().Err(err)
				if t != nil {
					ev = ev.Str("signature", t.Signature).Str("wallet", t.FromWallet)
				}
				ev.Msg("rejected trade")
			}
		}
	}
}
