package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DeductResult is the outcome of walking a funding list for one expense.
type DeductResult struct {
	// Deductions lists the debits to apply, in funding order. Their sum is
	// amount - Shortfall.
	Deductions []Deduction
	// Shortfall is the part of the expense the sources could not cover. A
	// non-zero shortfall means the caller must reject the expense; nothing
	// may be persisted.
	Shortfall decimal.Decimal
	// Missing lists selected sources that no longer exist. The caller should
	// surface these rather than silently ignore them.
	Missing []SourceRef
}

// Covered reports whether the expense was fully funded.
func (r DeductResult) Covered() bool {
	return r.Shortfall.IsZero()
}

// Deduct walks the funding sources in the exact order given (the order is
// user-chosen and significant: the first source is drained first), taking
// min(available, remaining) from each until the expense is covered or the
// list is exhausted. Duplicate (kind, id) pairs are ignored after their first
// occurrence. Deduct reads balances only through lookup and applies nothing.
func Deduct(amount decimal.Decimal, sources []SourceRef, lookup BalanceLookup) (DeductResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return DeductResult{}, fmt.Errorf("expense amount must be positive")
	}
	if len(sources) == 0 {
		return DeductResult{}, fmt.Errorf("no funding sources selected")
	}

	res := DeductResult{}
	remaining := amount
	seen := make(map[SourceRef]bool, len(sources))

	for _, src := range sources {
		if remaining.IsZero() {
			break
		}
		if src.Kind != KindWallet && src.Kind != KindSubWallet {
			return DeductResult{}, fmt.Errorf("unknown source kind %q", src.Kind)
		}
		if seen[src] {
			continue
		}
		seen[src] = true

		available, ok := lookup(src.Kind, src.ID)
		if !ok {
			res.Missing = append(res.Missing, src)
			continue
		}

		take := decimal.Min(available, remaining)
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}
		res.Deductions = append(res.Deductions, Deduction{Kind: src.Kind, ID: src.ID, Amount: take})
		remaining = remaining.Sub(take)
	}

	res.Shortfall = remaining
	return res, nil
}

// SumDeductions returns the total of a deduction list.
func SumDeductions(deductions []Deduction) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deductions {
		total = total.Add(d.Amount)
	}
	return total
}
