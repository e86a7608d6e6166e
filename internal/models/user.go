package models

import "time"

// User represents an authenticated wallet
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;size:42;not null" json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
