package ledger

import (
	"fmt"

	"github.com/iamnotbasant/basantmoney-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// ApplyPartialPayment records a partial payment against an udaar entry,
// mutating its remaining amount and status. Valid transitions:
// pending/partially_paid -> partially_paid, or -> paid when the remaining
// amount reaches zero. OriginalAmount is set on the first partial payment and
// never overwritten. The entry is not touched when validation fails.
func ApplyPartialPayment(e *models.UdaarEntry, amount decimal.Decimal) error {
	if e.Status == models.UdaarPaid {
		return fmt.Errorf("entry is already paid")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("payment amount must be positive")
	}
	if amount.GreaterThan(e.Amount) {
		return fmt.Errorf("payment %s exceeds remaining amount %s", amount, e.Amount)
	}

	if e.OriginalAmount.IsZero() {
		e.OriginalAmount = e.Amount
	}

	e.Amount = e.Amount.Sub(amount)
	if e.Amount.IsZero() {
		e.Status = models.UdaarPaid
	} else {
		e.Status = models.UdaarPartiallyPaid
	}
	return nil
}

// MarkPaid transitions an entry to the terminal paid state, clearing the
// remaining amount. Already-paid entries are rejected.
func MarkPaid(e *models.UdaarEntry) error {
	if e.Status == models.UdaarPaid {
		return fmt.Errorf("entry is already paid")
	}
	if e.OriginalAmount.IsZero() {
		e.OriginalAmount = e.Amount
	}
	e.Amount = decimal.Zero
	e.Status = models.UdaarPaid
	return nil
}
