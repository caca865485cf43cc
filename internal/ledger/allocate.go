package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SubWalletShare is one configured sub-wallet share of its parent category's
// inflow.
type SubWalletShare struct {
	ParentCategory string
	SubWalletID    uint
	Percent        int
}

// Allocate splits an income amount across the three category wallets and
// their sub-wallets. Each category receives amount * percent / 100; each
// sub-wallet under a category receives its configured share of that category
// amount, and whatever the sub-wallets do not claim is credited to the parent
// wallet itself as unallocated remainder.
//
// Input must be pre-validated; Allocate rejects invalid input rather than
// normalizing it. The returned credits always sum to amount exactly.
func Allocate(amount decimal.Decimal, dist Distribution, walletByCategory map[string]uint, shares []SubWalletShare) ([]Credit, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("income amount must be positive")
	}
	if err := dist.Validate(); err != nil {
		return nil, err
	}

	var credits []Credit
	for _, category := range []string{"saving", "needs", "wants"} {
		walletID, ok := walletByCategory[category]
		if !ok {
			return nil, fmt.Errorf("no wallet for category %q", category)
		}

		categoryAmount := amount.Mul(decimal.NewFromInt(int64(dist.Percent(category)))).Div(hundred)
		if categoryAmount.IsZero() {
			continue
		}

		// sub-wallet credits, in configured order
		subTotal := decimal.Zero
		percentTotal := 0
		for _, s := range shares {
			if s.ParentCategory != category {
				continue
			}
			if s.Percent < 0 || s.Percent > 100 {
				return nil, fmt.Errorf("sub-wallet %d allocation percentage out of range: %d", s.SubWalletID, s.Percent)
			}
			percentTotal += s.Percent
			if percentTotal > 100 {
				return nil, fmt.Errorf("sub-wallet allocations under %q exceed 100%%", category)
			}
			subAmount := categoryAmount.Mul(decimal.NewFromInt(int64(s.Percent))).Div(hundred)
			if subAmount.IsZero() {
				continue
			}
			credits = append(credits, Credit{Kind: KindSubWallet, ID: s.SubWalletID, Amount: subAmount})
			subTotal = subTotal.Add(subAmount)
		}

		// unclaimed remainder stays in the parent wallet
		remainder := categoryAmount.Sub(subTotal)
		if remainder.IsPositive() {
			credits = append(credits, Credit{Kind: KindWallet, ID: walletID, Amount: remainder})
		}
	}

	return credits, nil
}

// SumCredits returns the total of a credit list.
func SumCredits(credits []Credit) decimal.Decimal {
	total := decimal.Zero
	for _, c := range credits {
		total = total.Add(c.Amount)
	}
	return total
}
