// Package ledger implements the wallet allocation, deduction and reversal
// engines plus the udaar settlement state machine. All functions here are
// pure: they compute lists of balance deltas and never touch storage; the
// caller applies deltas transactionally.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Funding source kinds.
const (
	KindWallet    = "wallet"
	KindSubWallet = "subwallet"
)

var hundred = decimal.NewFromInt(100)

// Distribution is the income split across the three wallet categories.
type Distribution struct {
	Saving int `json:"saving"`
	Needs  int `json:"needs"`
	Wants  int `json:"wants"`
}

// Validate checks that each percentage is in range and the three sum to 100.
func (d Distribution) Validate() error {
	for _, p := range []int{d.Saving, d.Needs, d.Wants} {
		if p < 0 || p > 100 {
			return fmt.Errorf("distribution percentage out of range: %d", p)
		}
	}
	if sum := d.Saving + d.Needs + d.Wants; sum != 100 {
		return fmt.Errorf("distribution must sum to 100, got %d", sum)
	}
	return nil
}

// Percent returns the percentage configured for a category.
func (d Distribution) Percent(category string) int {
	switch category {
	case "saving":
		return d.Saving
	case "needs":
		return d.Needs
	case "wants":
		return d.Wants
	}
	return 0
}

// SourceRef identifies one funding source (a wallet or a sub-wallet).
type SourceRef struct {
	Kind string `json:"kind" binding:"required,oneof=wallet subwallet"`
	ID   uint   `json:"id" binding:"required"`
}

// Credit is one balance increase to apply to a target.
type Credit struct {
	Kind   string
	ID     uint
	Amount decimal.Decimal
}

// Deduction is one balance decrease applied to a source.
type Deduction struct {
	Kind   string
	ID     uint
	Amount decimal.Decimal
}

// BalanceLookup resolves the available balance of a funding source. The
// second return value is false when the source does not exist. For a
// wallet-kind source the available balance is the wallet's stored unallocated
// remainder; sub-wallet balances are never implicitly spendable through the
// parent.
type BalanceLookup func(kind string, id uint) (decimal.Decimal, bool)
