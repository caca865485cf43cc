package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestReverseExpense_RestoresBalances deducts an expense from a balance
// table, replays the reversal, and checks every touched source is back at its
// pre-deduction value exactly.
func TestReverseExpense_RestoresBalances(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindSubWallet, ID: 1}: d("300"),
		{Kind: KindSubWallet, ID: 2}: d("500"),
		{Kind: KindWallet, ID: 3}:    d("120.50"),
	}
	before := make(map[SourceRef]decimal.Decimal, len(balances))
	for k, v := range balances {
		before[k] = v
	}
	sources := []SourceRef{
		{Kind: KindSubWallet, ID: 1},
		{Kind: KindSubWallet, ID: 2},
		{Kind: KindWallet, ID: 3},
	}

	res, err := Deduct(d("820.50"), sources, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if !res.Covered() {
		t.Fatalf("shortfall = %s, want 0", res.Shortfall)
	}

	for _, ded := range res.Deductions {
		ref := SourceRef{Kind: ded.Kind, ID: ded.ID}
		balances[ref] = balances[ref].Sub(ded.Amount)
	}
	for _, cr := range ReverseExpense(res.Deductions) {
		ref := SourceRef{Kind: cr.Kind, ID: cr.ID}
		balances[ref] = balances[ref].Add(cr.Amount)
	}

	for ref, want := range before {
		if got := balances[ref]; !got.Equal(want) {
			t.Errorf("source %+v balance = %s after reversal, want %s", ref, got, want)
		}
	}
}

// TestReverseIncome_ReplaysBreakdown checks income reversal debits mirror the
// persisted allocation breakdown, independent of any current settings.
func TestReverseIncome_ReplaysBreakdown(t *testing.T) {
	allocations := []Credit{
		{Kind: KindSubWallet, ID: 10, Amount: d("2000")},
		{Kind: KindWallet, ID: 1, Amount: d("3000")},
		{Kind: KindWallet, ID: 2, Amount: d("5000")},
	}

	debits := ReverseIncome(allocations)
	if len(debits) != len(allocations) {
		t.Fatalf("got %d debits, want %d", len(debits), len(allocations))
	}
	for i, dbt := range debits {
		a := allocations[i]
		if dbt.Kind != a.Kind || dbt.ID != a.ID || !dbt.Amount.Equal(a.Amount) {
			t.Errorf("debit[%d] = %+v, want mirror of %+v", i, dbt, a)
		}
	}
	if !SumDeductions(debits).Equal(SumCredits(allocations)) {
		t.Error("reversal debits do not sum to the original allocation total")
	}
}
