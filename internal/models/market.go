package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// MarketStatus is the lifecycle status of a market. Transitions only move
// forward: open -> ended -> resolving -> resolved.
type MarketStatus string

const (
	MarketStatusOpen      MarketStatus = "open"
	MarketStatusEnded     MarketStatus = "ended"
	MarketStatusResolving MarketStatus = "resolving"
	MarketStatusResolved  MarketStatus = "resolved"
)

var statusRank = map[MarketStatus]int{
	MarketStatusOpen:      0,
	MarketStatusEnded:     1,
	MarketStatusResolving: 2,
	MarketStatusResolved:  3,
}

// CanAdvanceTo reports whether moving to next would keep the lifecycle
// monotonic. Equal statuses are allowed so idempotent writes don't fail.
func (s MarketStatus) CanAdvanceTo(next MarketStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// Outcome is a market's binary outcome.
type Outcome string

const (
	OutcomeYes       Outcome = "yes"
	OutcomeNo        Outcome = "no"
	OutcomeUndefined Outcome = "undefined"
)

// Code returns the numeric outcome code used by both escrow contract
// generations (1 = YES, 2 = NO).
func (o Outcome) Code() uint8 {
	switch o {
	case OutcomeYes:
		return 1
	case OutcomeNo:
		return 2
	}
	return 0
}

// OutcomeFromCode maps an on-chain outcome code back to an Outcome.
func OutcomeFromCode(code uint8) Outcome {
	switch code {
	case 1:
		return OutcomeYes
	case 2:
		return OutcomeNo
	}
	return OutcomeUndefined
}

// ResolutionState is the resolution sub-state of a market:
// undecided -> deciding -> decided-pending-bridge -> bridged.
// A failed step falls back to its own starting state; bridged is terminal.
type ResolutionState string

const (
	ResolutionUndecided     ResolutionState = "undecided"
	ResolutionDeciding      ResolutionState = "deciding"
	ResolutionPendingBridge ResolutionState = "decided-pending-bridge"
	ResolutionBridged       ResolutionState = "bridged"
)

// Market represents a binary-outcome prediction market
type Market struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Question           string          `gorm:"size:500;not null" json:"question"`
	ResolutionCriteria string          `gorm:"type:text" json:"resolution_criteria"`
	Category           string          `gorm:"size:50;index" json:"category"` // Politics, Sports, Crypto, Science
	Tags               pq.StringArray  `gorm:"type:text" json:"tags,omitempty"` // pq array literal, portable across postgres and the sqlite test db
	CreatorAddress     string          `gorm:"size:42;index" json:"creator_address"`
	Verified           bool            `gorm:"default:false" json:"verified"`
	Status             MarketStatus    `gorm:"size:20;default:open;index" json:"status"`
	ResolutionState    ResolutionState `gorm:"size:30;default:undecided" json:"resolution_state"`
	Probability        float64         `gorm:"default:50" json:"probability"` // 0-100, YES side
	Volume             decimal.Decimal `gorm:"type:decimal(38,0);default:0" json:"volume"`
	YesPool            decimal.Decimal `gorm:"type:decimal(38,0);default:0" json:"yes_pool"`
	NoPool             decimal.Decimal `gorm:"type:decimal(38,0);default:0" json:"no_pool"`
	ContractAddress    *string         `gorm:"size:42;index" json:"contract_address,omitempty"` // settlement chain escrow
	ResolutionAddress  *string         `gorm:"size:42" json:"resolution_address,omitempty"`     // resolution chain contract
	ResolvedOutcome    Outcome         `gorm:"size:20;default:undefined" json:"resolved_outcome"`
	PendingOutcome     *string         `gorm:"size:20" json:"-"` // decided but not yet bridged
	PendingRationale   string          `gorm:"type:text" json:"-"`
	EndTime            time.Time       `gorm:"not null;index" json:"end_time"`
	CreatedAt          time.Time       `json:"created_at"`
	ResolvedAt         *time.Time      `json:"resolved_at,omitempty"`
}

func (Market) TableName() string {
	return "markets"
}

// HasContract reports whether the market settles through an on-chain escrow
// contract, as opposed to the off-chain shadow ledger.
func (m *Market) HasContract() bool {
	return m.ContractAddress != nil && *m.ContractAddress != ""
}

// CreateMarketRequest is the request body for creating a market
type CreateMarketRequest struct {
	Question           string   `json:"question" binding:"required"`
	ResolutionCriteria string   `json:"resolution_criteria" binding:"required"`
	Category           string   `json:"category" binding:"required"`
	Tags               []string `json:"tags"`
	EndTime            int64    `json:"end_time" binding:"required"` // unix seconds
	ContractAddress    string   `json:"contract_address"`
	ResolutionAddress  string   `json:"resolution_address"`
}

// ResolveMarketRequest is the request body for resolving a market
type ResolveMarketRequest struct {
	Outcome string `json:"outcome"` // required for manually resolved markets
}
