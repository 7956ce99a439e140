// Package presentation turns layouts into render-ready scenes and streams
// them to browser clients.
package presentation

import "solana-wallet-map/internal/domain"

// Style configures marker sizes and colours.
type Style struct {
	WalletSize    float64
	WalletColor   string
	TokenSize     float64 // base size before weight
	TokenScale    float64 // size added per unit of weight
	TokenColor    string
	EdgeColor     string
	EdgeWidth     float64
	MarkerOpacity float64
}

// DefaultStyle returns the map styling.
func DefaultStyle() Style {
	return Style{
		WalletSize:    16,
		WalletColor:   "green",
		TokenSize:     20,
		TokenScale:    4,
		TokenColor:    "blue",
		EdgeColor:     "#999",
		EdgeWidth:     1,
		MarkerOpacity: 0.9,
	}
}

// SceneNode is a node with its marker.
type SceneNode struct {
	domain.LayoutNode
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// Segment is a drawable edge between two present nodes.
type Segment struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
}

// Scene is what a renderer draws.
type Scene struct {
	Nodes        []SceneNode `json:"nodes"`
	Segments     []Segment   `json:"segments"`
	DroppedEdges int         `json:"dropped_edges"`
	EdgeColor    string      `json:"edge_color"`
	EdgeWidth    float64     `json:"edge_width"`
	Opacity      float64     `json:"opacity"`
}

// Adapter renders layouts into scenes.
type Adapter struct {
	style Style
}

// NewAdapter creates an adapter with the given style.
func NewAdapter(style Style) *Adapter {
	return &Adapter{style: style}
}

// Render builds a scene from a layout. Wallet nodes come first, then tokens.
// Edges whose source or target has no node are dropped and counted.
func (a *Adapter) Render(layout domain.LayoutResult) *Scene {
	scene := &Scene{
		Nodes:     make([]SceneNode, 0, len(layout.WalletNodes)+len(layout.TokenNodes)),
		Segments:  make([]Segment, 0, len(layout.Edges)),
		EdgeColor: a.style.EdgeColor,
		EdgeWidth: a.style.EdgeWidth,
		Opacity:   a.style.MarkerOpacity,
	}

	index := make(map[string]int, cap(scene.Nodes))
	add := func(n domain.LayoutNode) {
		index[n.ID] = len(scene.Nodes)
		scene.Nodes = append(scene.Nodes, a.node(n))
	}
	for _, n := range layout.WalletNodes {
		add(n)
	}
	for _, n := range layout.TokenNodes {
		add(n)
	}

	for _, e := range layout.Edges {
		si, okS := index[e.Source]
		ti, okT := index[e.Target]
		if !okS || !okT {
			scene.DroppedEdges++
			continue
		}
		s, t := scene.Nodes[si], scene.Nodes[ti]
		scene.Segments = append(scene.Segments, Segment{
			Source: e.Source,
			Target: e.Target,
			X0:     s.X,
			Y0:     s.Y,
			X1:     t.X,
			Y1:     t.Y,
		})
	}

	return scene
}

func (a *Adapter) node(n domain.LayoutNode) SceneNode {
	if n.Type == domain.NodeTypeWallet {
		return SceneNode{LayoutNode: n, Size: a.style.WalletSize, Color: a.style.WalletColor}
	}
	weight := 1.0
	if n.Weight != nil {
		weight = *n.Weight
	}
	return SceneNode{
		LayoutNode: n,
		Size:       a.style.TokenSize + weight*a.style.TokenScale,
		Color:      a.style.TokenColor,
	}
}
