package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet categories. Exactly one wallet exists per category per user.
const (
	CategorySaving = "saving"
	CategoryNeeds  = "needs"
	CategoryWants  = "wants"
)

// Categories lists the three wallet categories in display order.
var Categories = []string{CategorySaving, CategoryNeeds, CategoryWants}

// ValidCategory reports whether s is one of the three wallet categories.
func ValidCategory(s string) bool {
	return s == CategorySaving || s == CategoryNeeds || s == CategoryWants
}

// Wallet is a top-level bucket. Balance stores only the unallocated
// remainder; the displayed total is Balance plus the sum of the wallet's
// sub-wallet balances and is recomputed on every read, never cached.
type Wallet struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"index;not null"`
	Name      string          `gorm:"size:64;not null"`
	Category  string          `gorm:"size:16;index;not null"` // saving / needs / wants
	Color     string          `gorm:"size:16"`
	Balance   decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubWallet is a child bucket under one wallet category. AllocationPercent
// is the sub-wallet's share of the parent category's new inflow (not of the
// parent's total balance). Balance is authoritative and mutated directly.
type SubWallet struct {
	ID                uint            `gorm:"primaryKey"`
	UserID            uint            `gorm:"index;not null"`
	ParentCategory    string          `gorm:"size:16;index;not null"`
	Name              string          `gorm:"size:64;not null"`
	AllocationPercent int             `gorm:"not null"` // 0-100, share of parent inflow
	Color             string          `gorm:"size:16"`
	Balance           decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	GoalAmount        decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	GoalEnabled       bool            `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
