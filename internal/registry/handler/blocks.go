package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/starnotary/starchain/internal/chain"
)

// ChainHandler exposes read-only HTTP endpoints over the block chain:
// block lookups, the chain overview, and the full-chain audit.
type ChainHandler struct {
	ledger *chain.Ledger
	logger *zap.Logger
}

// NewChainHandler creates a new ChainHandler.
func NewChainHandler(ledger *chain.Ledger, logger *zap.Logger) *ChainHandler {
	return &ChainHandler{ledger: ledger, logger: logger}
}

// Register mounts the chain routes on the given router group.
func (h *ChainHandler) Register(rg *gin.RouterGroup) {
	ch := rg.Group("/chain")
	{
		ch.GET("", h.Overview)
		ch.GET("/validate", h.ValidateChain)
	}
	b := rg.Group("/blocks")
	{
		b.GET("/height/:height", h.BlockByHeight)
		b.GET("/hash/:hash", h.BlockByHash)
	}
}

// Overview handles GET /chain — returns the current height and tip hash.
func (h *ChainHandler) Overview(c *gin.Context) {
	tip := h.ledger.Tip()
	c.JSON(http.StatusOK, gin.H{
		"height": tip.Height,
		"tip":    tip.Hash,
	})
}

// ValidateChain handles GET /chain/validate — walks the full chain and
// reports every integrity and linkage fault. A faulty chain still answers
// 200: the audit result is the payload, not a server failure.
func (h *ChainHandler) ValidateChain(c *gin.Context) {
	faults := h.ledger.Validate()
	RecordAudit(len(faults) == 0)

	if len(faults) > 0 {
		h.logger.Warn("chain audit found faults", zap.Int("faults", len(faults)))
		c.JSON(http.StatusOK, gin.H{
			"valid":  false,
			"faults": faults,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// BlockByHeight handles GET /blocks/height/:height — returns one block.
func (h *ChainHandler) BlockByHeight(c *gin.Context) {
	height, err := strconv.Atoi(c.Param("height"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "height must be an integer"})
		return
	}

	block, ok := h.ledger.ByHeight(height)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}

	c.JSON(http.StatusOK, block)
}

// BlockByHash handles GET /blocks/hash/:hash — returns one block.
func (h *ChainHandler) BlockByHash(c *gin.Context) {
	block, ok := h.ledger.ByHash(c.Param("hash"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}

	c.JSON(http.StatusOK, block)
}
