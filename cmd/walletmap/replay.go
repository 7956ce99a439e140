package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"solana-wallet-map/internal/classifier"
	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/engine"
	"solana-wallet-map/internal/ingestion"
	"solana-wallet-map/internal/layout"
	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/presentation"
)

var (
	replayInput  string
	replayOutput string
	replaySort   bool
	replayScene  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a JSON-lines trade capture and write the resulting layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateEngine(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger := logging.Component("replay")
		eng := engine.New(engine.Options{
			Classifier:          classifier.New(cfg.ClassifierOptions()),
			Layout:              layout.NewEngine(cfg.LayoutOptions()),
			SkipOffCurveWallets: cfg.Engine.SkipOffCurveWallets,
		})

		src := ingestion.NewFileTradeSource(ingestion.FileSourceOptions{Path: replayInput, Sort: replaySort})
		if err := eng.Run(cmd.Context(), src); err != nil {
			return err
		}

		result, holders := eng.Latest()
		logger.Info().
			Int("wallets", eng.Ledger().Len()).
			Int("tokens", len(result.TokenNodes)).
			Int("edges", len(result.Edges)).
			Msg("replay complete")

		var doc any = replayDocument{Layout: result, Holders: holders}
		if replayScene {
			doc = presentation.NewAdapter(presentation.DefaultStyle()).Render(result)
		}

		var w io.Writer = os.Stdout
		if replayOutput != "" {
			f, err := os.Create(replayOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			w = f
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

type replayDocument struct {
	Layout  domain.LayoutResult       `json:"layout"`
	Holders []domain.TokenHolderStats `json:"holders"`
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "JSON-lines trade capture")
	replayCmd.Flags().StringVar(&replayOutput, "output", "", "output file (default stdout)")
	replayCmd.Flags().BoolVar(&replaySort, "sort", false, "order trades by (slot, signature) before replay")
	replayCmd.Flags().BoolVar(&replayScene, "scene", false, "write the rendered scene instead of the raw layout")
	_ = replayCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(replayCmd)
}
