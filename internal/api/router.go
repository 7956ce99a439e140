// Package api serves the wallet map over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"solana-wallet-map/internal/domain"
	"solana-wallet-map/internal/logging"
	"solana-wallet-map/internal/presentation"
	"solana-wallet-map/internal/solana"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// LayoutReader exposes the last computed layout and holder stats.
type LayoutReader interface {
	Latest() (domain.LayoutResult, []domain.TokenHolderStats)
}

// WalletReader looks up a wallet's current balances.
type WalletReader interface {
	Wallet(address string) (domain.WalletBalance, bool)
}

// SceneReader exposes the last rendered scene.
type SceneReader interface {
	Latest() *presentation.Scene
}

// Deps are the read-side components the router serves.
type Deps struct {
	Layout  LayoutReader
	Wallets WalletReader
	Scenes  SceneReader
	// Stream handles /ws. Optional.
	Stream http.Handler
	// Metrics handles /metrics. Optional.
	Metrics http.Handler
	Logger  *zerolog.Logger
}

type handlers struct {
	deps Deps
}

// NewRouter builds the gin engine.
func NewRouter(deps Deps) *gin.Engine {
	logger := logging.Component("api")
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	r := gin.New()
	r.Use(Logger(logger))
	r.Use(gin.Recovery())

	h := &handlers{deps: deps}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	if deps.Stream != nil {
		r.GET("/ws", gin.WrapH(deps.Stream))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/layout", h.getLayout)
		v1.GET("/scene", h.getScene)
		v1.GET("/wallets/:address", h.getWallet)
		v1.GET("/tokens", h.getTokens)
	}

	return r
}

func writeError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Error{Code: code, Message: message})
}

func (h *handlers) getLayout(c *gin.Context) {
	layout, _ := h.deps.Layout.Latest()
	c.JSON(http.StatusOK, layout)
}

func (h *handlers) getTokens(c *gin.Context) {
	_, holders := h.deps.Layout.Latest()
	if holders == nil {
		holders = []domain.TokenHolderStats{}
	}
	c.JSON(http.StatusOK, gin.H{"tokens": holders})
}

func (h *handlers) getScene(c *gin.Context) {
	if h.deps.Scenes == nil {
		writeError(c, http.StatusNotFound, "scene rendering disabled")
		return
	}
	scene := h.deps.Scenes.Latest()
	if scene == nil {
		scene = presentation.NewAdapter(presentation.DefaultStyle()).Render(domain.EmptyLayout())
	}
	c.JSON(http.StatusOK, scene)
}

func (h *handlers) getWallet(c *gin.Context) {
	address := c.Param("address")
	if err := solana.ValidateAddress(address); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	wallet, ok := h.deps.Wallets.Wallet(address)
	if !ok {
		writeError(c, http.StatusNotFound, "wallet not found")
		return
	}
	c.JSON(http.StatusOK, wallet)
}
