package domain

// NodeType distinguishes wallet and token nodes.
type NodeType string

const (
	NodeTypeWallet NodeType = "wallet"
	NodeTypeToken  NodeType = "token"
)

// String returns the string representation of NodeType.
func (t NodeType) String() string {
	return string(t)
}

// LayoutNode is a positioned wallet or token.
type LayoutNode struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Type   NodeType `json:"type"`
	Weight *float64 `json:"weight,omitempty"` // tokens only
}

// LayoutEdge connects a wallet to a token it currently holds.
type LayoutEdge struct {
	Source string `json:"source"` // wallet address
	Target string `json:"target"` // token address
}

// LayoutResult is the full output of one layout pass.
type LayoutResult struct {
	WalletNodes []LayoutNode `json:"wallet_nodes"`
	TokenNodes  []LayoutNode `json:"token_nodes"`
	Edges       []LayoutEdge `json:"edges"`
}

// EmptyLayout returns a layout with non-nil empty slices.
func EmptyLayout() LayoutResult {
	return LayoutResult{
		WalletNodes: []LayoutNode{},
		TokenNodes:  []LayoutNode{},
		Edges:       []LayoutEdge{},
	}
}
