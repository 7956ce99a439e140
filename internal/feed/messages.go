package feed

import (
	"encoding/json"

	"solana-wallet-map/internal/domain"
)

const (
	jsonRPCVersion          = "2.0"
	methodTradesSubscribe   = "tradesSubscribe"
	methodTradeNotification = "tradeNotification"
)

// request is an outgoing JSON-RPC call.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// envelope covers every incoming frame. Responses carry ID with Result or
// Error; notifications carry Method and Params.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type notificationParams struct {
	Subscription int64              `json:"subscription"`
	Result       notificationResult `json:"result"`
}

type notificationResult struct {
	Context *notificationContext `json:"context"`
	Value   *domain.Trade        `json:"value"`
}

type notificationContext struct {
	Slot int64 `json:"slot"`
}

func derefID(id *uint64) uint64 {
	if id == nil {
		return 0
	}
	return *id
}
