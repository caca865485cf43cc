package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestValidateAmount_Positive(t *testing.T) {
	testCases := []string{"0.01", "1", "100.5", "9999999.99"}

	for _, s := range testCases {
		if err := ValidateAmount(amt(s)); err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", s, err)
		}
	}
}

func TestValidateAmount_NonPositive(t *testing.T) {
	testCases := []string{"0", "-0.01", "-100", "-9999.99"}

	for _, s := range testCases {
		if err := ValidateAmount(amt(s)); err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", s)
		}
	}
}

func TestValidateAmount_TooLarge(t *testing.T) {
	if err := ValidateAmount(amt("100000000")); err == nil {
		t.Error("ValidateAmount(100000000) error = nil, want error")
	}
}

func TestValidatePercent(t *testing.T) {
	for _, p := range []int{0, 1, 50, 100} {
		if err := ValidatePercent(p); err != nil {
			t.Errorf("ValidatePercent(%d) error = %v, want nil", p, err)
		}
	}
	for _, p := range []int{-1, 101, 1000} {
		if err := ValidatePercent(p); err == nil {
			t.Errorf("ValidatePercent(%d) error = nil, want error", p)
		}
	}
}

func TestParseEntryDate(t *testing.T) {
	// past dates in every accepted layout
	for _, s := range []string{"2024-01-02", "2024-01-02T10:30:00"} {
		got, err := ParseEntryDate(s)
		if err != nil {
			t.Errorf("ParseEntryDate(%q) error = %v, want nil", s, err)
			continue
		}
		if got.Format("2006-01-02") != "2024-01-02" {
			t.Errorf("ParseEntryDate(%q) = %s, want 2024-01-02", s, got)
		}
	}

	// empty defaults to today
	if _, err := ParseEntryDate(""); err != nil {
		t.Errorf("ParseEntryDate(\"\") error = %v, want nil", err)
	}

	// garbage and future dates rejected
	if _, err := ParseEntryDate("garbage"); err == nil {
		t.Error("ParseEntryDate(garbage) error = nil, want error")
	}
	if _, err := ParseEntryDate("2999-01-01"); err == nil {
		t.Error("ParseEntryDate(future) error = nil, want error")
	}
}
