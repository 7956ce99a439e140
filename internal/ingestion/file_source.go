package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/observability"
)

// maxLineSize bounds a single JSON trade line.
const maxLineSize = 1 << 20

// FileTradeSource replays trades from a JSON-lines capture, one trade per line.
type FileTradeSource struct {
	path   string
	sort   bool
	logger zerolog.Logger
}

// FileSourceOptions contains configuration for creating a FileTradeSource.
type FileSourceOptions struct {
	Path string
	// Sort orders trades by (slot, signature) before replay.
	Sort   bool
	Logger *zerolog.Logger
}

// NewFileTradeSource creates a replay source for a capture file.
func NewFileTradeSource(opts FileSourceOptions) *FileTradeSource {
	logger := logging.Component("replay")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &FileTradeSource{path: opts.Path, sort: opts.Sort, logger: logger}
}

// Subscribe loads the capture and streams it. The channel closes after the
// last trade or when ctx is cancelled. Load errors are returned before any
// trade is sent.
func (s *FileTradeSource) Subscribe(ctx context.Context) (<-chan *domain.Trade, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	trades, skipped, err := ReadTrades(f, s.logger.With().Str("path", s.path).Logger())
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", s.path, err)
	}

	if s.sort {
		SortTrades(trades)
	} else if err := ValidateTradeOrdering(trades); err != nil {
		s.logger.Warn().Str("path", s.path).Msg("capture is not in slot order, replaying as recorded")
	}

	s.logger.Info().Str("path", s.path).Int("trades", len(trades)).Int("skipped", skipped).Bool("sorted", s.sort).Msg("replaying capture")

	out := make(chan *domain.Trade)
	go func() {
		defer close(out)
		for _, t := range trades {
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ReadTrades decodes JSON-lines trades. Blank lines and lines starting with
// '#' are skipped. Undecodable lines are logged, counted as rejected and
// skipped; their number is returned. Only read failures abort.
func ReadTrades(r io.Reader, logger zerolog.Logger) ([]*domain.Trade, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var trades []*domain.Trade
	line, skipped := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		t, err := DecodeTrade([]byte(text))
		if err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping undecodable capture line")
			observability.RecordTradeRejected("decode")
			skipped++
			continue
		}
		trades = append(trades, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("line %d: %w", line+1, err)
	}
	return trades, skipped, nil
}

var _ TradeSource = (*FileTradeSource)(nil)
