package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeAction distinguishes rows in the trade journal.
type TradeAction string

const (
	TradeActionBuy   TradeAction = "buy"
	TradeActionSell  TradeAction = "sell"
	TradeActionClaim TradeAction = "claim"
)

// Trade is one immutable journal entry. Rows are created once per execution
// and never updated.
type Trade struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"market_id"`
	UserAddress string          `gorm:"size:42;not null;index" json:"user_address"`
	Side        Outcome         `gorm:"size:10;not null" json:"side"`
	Action      TradeAction     `gorm:"size:10;not null" json:"action"`
	Shares      decimal.Decimal `gorm:"type:decimal(38,0);not null" json:"shares"`
	Price       decimal.Decimal `gorm:"type:decimal(12,6);not null" json:"price"`
	Amount      decimal.Decimal `gorm:"type:decimal(38,0);not null" json:"amount"`
	TxHash      *string         `gorm:"size:66" json:"tx_hash,omitempty"` // settlement chain, nil for shadow trades
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// TradeRequest is the request body for buy/sell operations
type TradeRequest struct {
	Side   string `json:"side" binding:"required,oneof=yes no"`
	Amount string `json:"amount" binding:"required"` // smallest unit, decimal string
}
