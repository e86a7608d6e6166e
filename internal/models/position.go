package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is a user's accumulated stake on one outcome side of one market.
// One row per (market, user, side). Amounts are kept in the chain's smallest
// unit as integer-valued decimals.
type Position struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_positions_market_user_side" json:"market_id"`
	UserAddress   string          `gorm:"size:42;not null;uniqueIndex:idx_positions_market_user_side;index" json:"user_address"`
	Side          Outcome         `gorm:"size:10;not null;uniqueIndex:idx_positions_market_user_side" json:"side"`
	Shares        decimal.Decimal `gorm:"type:decimal(38,0);not null" json:"shares"`
	AvgPrice      decimal.Decimal `gorm:"type:decimal(12,6);not null" json:"avg_price"` // 0..1
	Invested      decimal.Decimal `gorm:"type:decimal(38,0);not null" json:"invested"`
	Claimed       bool            `gorm:"default:false" json:"claimed"`
	ClaimedAmount decimal.Decimal `gorm:"type:decimal(38,0);default:0" json:"claimed_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

// PositionResponse is the API shape for a position, with the entitlement
// preview filled in for resolved markets.
type PositionResponse struct {
	ID            string          `json:"id"`
	MarketID      string          `json:"market_id"`
	UserAddress   string          `json:"user_address"`
	Side          string          `json:"side"`
	Shares        decimal.Decimal `json:"shares"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	Invested      decimal.Decimal `json:"invested"`
	Claimed       bool            `json:"claimed"`
	ClaimedAmount decimal.Decimal `json:"claimed_amount"`
	Entitlement   decimal.Decimal `json:"entitlement"`
	CreatedAt     time.Time       `json:"created_at"`
}
