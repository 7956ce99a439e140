package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replayCapture = `{"pool_type":"RaydiumAmm","token_address_in":"So11111111111111111111111111111111111111112","token_address_out":"T1","token_amount_in":"1000000000","token_amount_out":"5","from_wallet":"w1","signature":"a","slot":10}
`

func runReplay(t *testing.T) error {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "trades.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(replayCapture), 0o600))

	replayInput = input
	replayOutput = filepath.Join(dir, "layout.json")
	t.Cleanup(func() {
		replayInput, replayOutput = "", ""
	})

	replayCmd.SetContext(context.Background())
	return replayCmd.RunE(replayCmd, nil)
}

func TestReplay_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("WALLETMAP_LAYOUT_BIAS", "1.5")

	err := runReplay(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "layout.bias")
	assert.NoFileExists(t, replayOutput)
}

func TestReplay_WritesLayoutWithoutFeed(t *testing.T) {
	t.Setenv("WALLETMAP_LAYOUT_BIAS", "0.5")
	t.Setenv("WALLETMAP_FEED_URL", "")

	require.NoError(t, runReplay(t))

	raw, err := os.ReadFile(replayOutput)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "layout")
	assert.Contains(t, doc, "holders")
}
