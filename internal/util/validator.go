package util

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(10_000_000)

// ValidateAmount checks an amount is positive and below the sanity cap.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ValidatePercent checks an allocation percentage is within 0-100.
func ValidatePercent(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("percentage must be within 0-100, got %d", p)
	}
	return nil
}

// ParseEntryDate parses a transaction date, accepting the formats the UI
// sends. Empty input defaults to now; future dates are rejected.
func ParseEntryDate(s string) (time.Time, error) {
	occurredAt := time.Now()
	if s != "" {
		layouts := []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02",
		}
		parsed := false
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				occurredAt = t
				parsed = true
				break
			}
		}
		if !parsed {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
	}
	if occurredAt.Format("2006-01-02") > time.Now().Format("2006-01-02") {
		return time.Time{}, fmt.Errorf("date must not be in the future")
	}
	return occurredAt, nil
}
