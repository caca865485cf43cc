package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseEntry is a single expense record. Deductions is the audit trail of
// exactly which sources were debited and by how much; it is persisted with
// the expense and never recomputed (recomputing after other balance changes
// would not match what was actually deducted).
type ExpenseEntry struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"index;not null"`
	Amount      decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	Category    string          `gorm:"size:32;not null"`
	Description string          `gorm:"size:255"`
	OccurredAt  time.Time       `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Deductions []ExpenseDeduction `gorm:"constraint:OnDelete:CASCADE"`
}

// ExpenseDeduction records one debit applied to cover an expense. Position
// preserves the user-chosen funding order.
type ExpenseDeduction struct {
	ID             uint            `gorm:"primaryKey"`
	ExpenseEntryID uint            `gorm:"index;not null"`
	Position       int             `gorm:"not null"`
	SourceKind     string          `gorm:"size:16;not null"` // wallet / subwallet
	SourceID       uint            `gorm:"index;not null"`
	Amount         decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	CreatedAt      time.Time
}
