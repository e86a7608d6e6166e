package models

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionMechanism says how a market's outcome was decided.
type ResolutionMechanism string

const (
	MechanismAIConsensus   ResolutionMechanism = "ai-consensus"
	MechanismManualCreator ResolutionMechanism = "manual-creator"
)

// ResolutionRecord is the immutable record of how and when a market was
// decided. Exactly one per market, written when the settlement chain accepts
// the resolving transaction (or when the ledger is updated, for shadow
// markets).
type ResolutionRecord struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID  uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex" json:"market_id"`
	Outcome   Outcome             `gorm:"size:10;not null" json:"outcome"`
	Mechanism ResolutionMechanism `gorm:"size:20;not null" json:"mechanism"`
	Rationale string              `gorm:"type:text" json:"rationale,omitempty"` // consensus reasoning, empty for manual
	TxHash    *string             `gorm:"size:66" json:"tx_hash,omitempty"`     // bridge transaction on the settlement chain
	CreatedAt time.Time           `json:"created_at"`
}

func (ResolutionRecord) TableName() string {
	return "resolution_records"
}
