package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/starnotary/starchain/internal/registry/service"
	"github.com/starnotary/starchain/internal/star"
)

// StarHandler exposes the ownership workflow over HTTP: challenge
// issuance, star submission, and per-owner star lookups.
type StarHandler struct {
	svc    *service.StarService
	logger *zap.Logger
}

// NewStarHandler creates a new StarHandler.
func NewStarHandler(svc *service.StarService, logger *zap.Logger) *StarHandler {
	return &StarHandler{svc: svc, logger: logger}
}

// Register mounts the star registry routes on the given router group.
func (h *StarHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/challenges", h.RequestChallenge)
	rg.POST("/stars", h.SubmitStar)
	rg.GET("/owners/:address/stars", h.StarsByOwner)
}

// ChallengeRequest is the body of POST /challenges.
type ChallengeRequest struct {
	Address string `json:"address" binding:"required"`
}

// SubmitRequest is the body of POST /stars.
type SubmitRequest struct {
	Address   string    `json:"address" binding:"required"`
	Message   string    `json:"message" binding:"required"`
	Signature string    `json:"signature" binding:"required"`
	Star      star.Star `json:"star"`
}

// RequestChallenge handles POST /challenges — issues the message the
// wallet must sign.
func (h *StarHandler) RequestChallenge(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.svc.RequestChallenge(c.Request.Context(), req.Address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"address":    req.Address,
		"message":    message,
		"expires_in": int(h.svc.ChallengeWindow().Seconds()),
	})
}

// SubmitStar handles POST /stars — verifies ownership and appends the
// star block.
func (h *StarHandler) SubmitStar(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block, err := h.svc.SubmitStar(c.Request.Context(), req.Address, req.Message, req.Signature, req.Star)
	if err != nil {
		h.rejectSubmission(c, req.Address, err)
		return
	}

	RecordSubmission("accepted")
	SetChainHeight(float64(block.Height))
	c.JSON(http.StatusCreated, gin.H{"block": block})
}

// rejectSubmission maps a workflow error to its HTTP status and records
// the outcome.
func (h *StarHandler) rejectSubmission(c *gin.Context, address string, err error) {
	h.logger.Info("star submission failed",
		zap.String("address", address),
		zap.Error(err),
	)

	switch {
	case errors.Is(err, service.ErrMalformedChallenge):
		RecordSubmission("malformed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrChallengeExpired):
		RecordSubmission("expired")
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSignatureInvalid):
		RecordSubmission("bad_signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, star.ErrStoryTooLong):
		RecordSubmission("story_too_long")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		RecordSubmission("error")
		h.logger.Error("star submission error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "star submission failed"})
	}
}

// StarsByOwner handles GET /owners/:address/stars — lists every star the
// address has registered.
func (h *StarHandler) StarsByOwner(c *gin.Context) {
	address := c.Param("address")

	stars, err := h.svc.StarsByOwner(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, service.ErrNoStars) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("stars by owner", zap.String("address", address), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stars"})
		return
	}

	c.JSON(http.StatusOK, stars)
}
