package handlers

import (
	"net/http"
	"strconv"

	"genlayer-market/internal/auth"
	"genlayer-market/internal/models"
	"genlayer-market/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TradeHandler struct {
	coordinator *services.Coordinator
}

func NewTradeHandler(coordinator *services.Coordinator) *TradeHandler {
	return &TradeHandler{coordinator: coordinator}
}

// Buy purchases outcome shares on a market
// POST /markets/:id/buy
func (h *TradeHandler) Buy(c *gin.Context) {
	h.execute(c, models.TradeActionBuy)
}

// Sell sells shares back to the pool
// POST /markets/:id/sell
func (h *TradeHandler) Sell(c *gin.Context) {
	h.execute(c, models.TradeActionSell)
}

func (h *TradeHandler) execute(c *gin.Context, action models.TradeAction) {
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

	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive integer in the smallest unit"})
		return
	}

	side := models.Outcome(req.Side)

	var trade *models.Trade
	if action == models.TradeActionBuy {
		trade, err = h.coordinator.ExecuteBuy(c.Request.Context(), marketID, walletAddress, side, amount)
	} else {
		trade, err = h.coordinator.ExecuteSell(c.Request.Context(), marketID, walletAddress, side, amount)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    trade,
	})
}

// Claim settles the caller's winning position on a resolved market
// POST /markets/:id/claim
func (h *TradeHandler) Claim(c *gin.Context) {
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

	outcome, err := h.coordinator.Claim(c.Request.Context(), marketID, walletAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    outcome,
	})
}

// GetMyPositions returns the caller's positions across all markets
// GET /positions
func (h *TradeHandler) GetMyPositions(c *gin.Context) {
	walletAddress, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	positions, err := h.coordinator.UserPositions(c.Request.Context(), walletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch positions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    positions,
	})
}

// GetMarketTrades returns a market's trade journal, newest first
// GET /markets/:id/trades
func (h *TradeHandler) GetMarketTrades(c *gin.Context) {
	marketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	trades, err := h.coordinator.MarketTrades(c.Request.Context(), marketID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trades"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    trades,
	})
}
