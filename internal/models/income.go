package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeEntry is a single income record. Its balance effect is captured in
// Allocations at creation time; edit and delete replay that breakdown, so
// later changes to the distribution settings never affect reversal.
type IncomeEntry struct {
	ID         uint            `gorm:"primaryKey"`
	UserID     uint            `gorm:"index;not null"`
	Amount     decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	Category   string          `gorm:"size:32;not null"`
	Source     string          `gorm:"size:128"`
	OccurredAt time.Time       `gorm:"index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Allocations []IncomeAllocation `gorm:"constraint:OnDelete:CASCADE"`
}

// IncomeAllocation records one credit emitted when the income was allocated:
// either to a wallet (the category remainder) or to a sub-wallet.
type IncomeAllocation struct {
	ID            uint            `gorm:"primaryKey"`
	IncomeEntryID uint            `gorm:"index;not null"`
	TargetKind    string          `gorm:"size:16;not null"` // wallet / subwallet
	TargetID      uint            `gorm:"index;not null"`
	Amount        decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	CreatedAt     time.Time
}
