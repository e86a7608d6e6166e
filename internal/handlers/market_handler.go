package handlers

import (
	"net/http"
	"strconv"

	"genlayer-market/internal/auth"
	"genlayer-market/internal/models"
	"genlayer-market/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MarketHandler struct {
	coordinator *services.Coordinator
}

func NewMarketHandler(coordinator *services.Coordinator) *MarketHandler {
	return &MarketHandler{coordinator: coordinator}
}

// GetMarkets returns markets with optional status/category filtering
// GET /markets
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	status := c.Query("status")
	category := c.Query("category")
	tag := c.Query("tag")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	markets, total, err := h.coordinator.ListMarkets(c.Request.Context(), status, category, tag, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch markets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"total":   total,
	})
}

// GetMarketByID returns a specific market
// GET /markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	market, err := h.coordinator.GetMarket(c.Request.Context(), marketID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    market,
	})
}

// CreateMarket creates a new market owned by the authenticated wallet
// POST /markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	walletAddress, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.coordinator.CreateMarket(c.Request.Context(), &req, walletAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    market,
	})
}

// ResolveMarket runs the resolution flow for a market. For AI-resolved
// markets the body's outcome is ignored; for manual markets it is required.
// POST /markets/:id/resolve
func (h *MarketHandler) ResolveMarket(c *gin.Context) {
	walletAddress, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	var req models.ResolveMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.coordinator.ResolveMarket(c.Request.Context(), marketID, walletAddress, models.Outcome(req.Outcome))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}
