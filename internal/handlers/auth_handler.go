package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"genlayer-market/internal/auth"
	"genlayer-market/internal/blockchain"
	"genlayer-market/internal/repository"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
)

const loginMessage = "Sign this message to authenticate with GenLayer Market"

// AuthHandler handles wallet authentication endpoints
type AuthHandler struct {
	repo *repository.Repository
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(repo *repository.Repository) *AuthHandler {
	return &AuthHandler{repo: repo}
}

// WalletLogin authenticates a wallet by verifying a personal_sign signature
// over the fixed login message and recovering the signer address from it.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !blockchain.IsValidAddress(req.WalletAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	recovered, err := recoverSigner(loginMessage, req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature format"})
		return
	}
	if !strings.EqualFold(recovered, req.WalletAddress) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "signature does not match wallet"})
		return
	}

	user, err := h.repo.GetOrCreateUser(c.Request.Context(), strings.ToLower(req.WalletAddress))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// GetMe returns the currently authenticated wallet
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	walletAddress, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.repo.GetOrCreateUser(c.Request.Context(), walletAddress)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// recoverSigner recovers the address that produced a personal_sign signature
// over message.
func recoverSigner(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", err
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	// personal_sign produces V as 27/28; secp256k1 recovery wants 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}
