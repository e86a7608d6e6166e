package handlers

import (
	"errors"
	"net/http"

	"genlayer-market/internal/blockchain"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondError maps the settlement error taxonomy onto HTTP statuses. Raw
// transport errors never reach here; the blockchain package classifies them
// first.
func respondError(c *gin.Context, err error) {
	var notAuthorized *blockchain.NotAuthorizedError
	var revert *blockchain.RevertError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &notAuthorized):
		c.JSON(http.StatusForbidden, gin.H{
			"error":      "not authorized",
			"recognized": notAuthorized.Recognized,
		})
	case errors.Is(err, blockchain.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "already claimed"})
	case errors.Is(err, blockchain.ErrMarketClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, blockchain.ErrInvalidContract):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, blockchain.ErrSellUnsupported):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "selling is not supported by this market's contract"})
	case errors.Is(err, blockchain.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient funds"})
	case errors.Is(err, blockchain.ErrUserRejected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction rejected"})
	case errors.Is(err, blockchain.ErrNoWallet), errors.Is(err, blockchain.ErrWrongNetwork),
		errors.Is(err, blockchain.ErrNetworkUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &revert):
		c.JSON(http.StatusBadGateway, gin.H{"error": revert.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
