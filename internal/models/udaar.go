package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Udaar entry types: "gave" is money lent out (receivable), "took" is money
// borrowed (payable).
const (
	UdaarGave = "gave"
	UdaarTook = "took"
)

// Udaar settlement states. Paid is terminal.
const (
	UdaarPending       = "pending"
	UdaarPartiallyPaid = "partially_paid"
	UdaarPaid          = "paid"
)

// Payment history actions.
const (
	ActionCreated        = "created"
	ActionEdited         = "edited"
	ActionPartialPayment = "partial_payment"
	ActionMarkedPaid     = "marked_paid"
	ActionSettled        = "settled"
)

// UdaarEntry is a peer-to-peer debt record. Amount is the remaining balance
// and decreases with partial payments; OriginalAmount is set once when the
// first partial payment occurs and never overwritten afterwards.
type UdaarEntry struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         uint            `gorm:"index;not null"`
	TransactionID  string          `gorm:"size:36;uniqueIndex;not null"` // UUID
	PersonName     string          `gorm:"size:64;index;not null"`
	Amount         decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	OriginalAmount decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Type           string          `gorm:"size:8;not null"`          // gave / took
	Status         string          `gorm:"size:16;index;not null"`   // pending / partially_paid / paid
	ParentTxID     string          `gorm:"size:36;index"`            // partial-payment chain
	OccurredAt     time.Time       `gorm:"index;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentHistory is an append-only log of udaar transitions. Exactly one row
// is written per transition; Details carries an optional before/after JSON
// payload for edits and partial payments.
type PaymentHistory struct {
	ID            uint            `gorm:"primaryKey"`
	UserID        uint            `gorm:"index;not null"`
	TransactionID string          `gorm:"size:36;index;not null"`
	PersonName    string          `gorm:"size:64;not null"`
	Action        string          `gorm:"size:24;not null"`
	Description   string          `gorm:"size:255"`
	Amount        decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Details       string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"index"`
}
