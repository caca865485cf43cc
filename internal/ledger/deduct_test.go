package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

// mapLookup builds a BalanceLookup from a static balance table.
func mapLookup(balances map[SourceRef]decimal.Decimal) BalanceLookup {
	return func(kind string, id uint) (decimal.Decimal, bool) {
		b, ok := balances[SourceRef{Kind: kind, ID: id}]
		return b, ok
	}
}

func TestDeduct_Conservation(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindSubWallet, ID: 1}: d("300"),
		{Kind: KindSubWallet, ID: 2}: d("500"),
		{Kind: KindWallet, ID: 3}:    d("1000"),
	}
	sources := []SourceRef{
		{Kind: KindSubWallet, ID: 1},
		{Kind: KindSubWallet, ID: 2},
		{Kind: KindWallet, ID: 3},
	}

	res, err := Deduct(d("750"), sources, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if !res.Covered() {
		t.Fatalf("shortfall = %s, want 0", res.Shortfall)
	}
	if total := SumDeductions(res.Deductions); !total.Equal(d("750")) {
		t.Errorf("deductions sum to %s, want 750", total)
	}
}

func TestDeduct_OrderMatters(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindSubWallet, ID: 1}: d("300"),
		{Kind: KindSubWallet, ID: 2}: d("500"),
	}
	a := SourceRef{Kind: KindSubWallet, ID: 1}
	b := SourceRef{Kind: KindSubWallet, ID: 2}

	// first-listed source is drained first
	res1, err := Deduct(d("400"), []SourceRef{a, b}, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if len(res1.Deductions) != 2 || !res1.Deductions[0].Amount.Equal(d("300")) || !res1.Deductions[1].Amount.Equal(d("100")) {
		t.Errorf("order a,b deductions = %+v, want [300 from 1, 100 from 2]", res1.Deductions)
	}

	res2, err := Deduct(d("400"), []SourceRef{b, a}, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if len(res2.Deductions) != 1 || res2.Deductions[0].ID != 2 || !res2.Deductions[0].Amount.Equal(d("400")) {
		t.Errorf("order b,a deductions = %+v, want [400 from 2]", res2.Deductions)
	}
}

func TestDeduct_Shortfall(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindSubWallet, ID: 1}: d("300"),
	}

	res, err := Deduct(d("500"), []SourceRef{{Kind: KindSubWallet, ID: 1}}, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if len(res.Deductions) != 1 || !res.Deductions[0].Amount.Equal(d("300")) {
		t.Errorf("deductions = %+v, want [300 from 1]", res.Deductions)
	}
	if !res.Shortfall.Equal(d("200")) {
		t.Errorf("shortfall = %s, want 200", res.Shortfall)
	}
	if res.Covered() {
		t.Error("Covered() = true, want false")
	}
}

func TestDeduct_StopsEarly(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindSubWallet, ID: 1}: d("500"),
		{Kind: KindSubWallet, ID: 2}: d("500"),
	}
	sources := []SourceRef{
		{Kind: KindSubWallet, ID: 1},
		{Kind: KindSubWallet, ID: 2},
	}

	res, err := Deduct(d("200"), sources, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if len(res.Deductions) != 1 {
		t.Fatalf("got %d deductions, want 1 (later sources untouched)", len(res.Deductions))
	}
	if res.Deductions[0].ID != 1 || !res.Deductions[0].Amount.Equal(d("200")) {
		t.Errorf("deduction = %+v, want 200 from source 1", res.Deductions[0])
	}
}

func TestDeduct_DuplicateSourceIgnored(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindSubWallet, ID: 1}: d("300"),
	}
	src := SourceRef{Kind: KindSubWallet, ID: 1}

	res, err := Deduct(d("500"), []SourceRef{src, src}, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	// the duplicate must not double-spend the same balance
	if len(res.Deductions) != 1 {
		t.Fatalf("got %d deductions, want 1", len(res.Deductions))
	}
	if !res.Shortfall.Equal(d("200")) {
		t.Errorf("shortfall = %s, want 200", res.Shortfall)
	}
}

func TestDeduct_MissingSourceReported(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindSubWallet, ID: 2}: d("500"),
	}
	sources := []SourceRef{
		{Kind: KindSubWallet, ID: 99}, // deleted sub-wallet
		{Kind: KindSubWallet, ID: 2},
	}

	res, err := Deduct(d("100"), sources, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if len(res.Missing) != 1 || res.Missing[0].ID != 99 {
		t.Errorf("missing = %+v, want [source 99]", res.Missing)
	}
	if !res.Covered() {
		t.Errorf("shortfall = %s, want 0 (next source covers)", res.Shortfall)
	}
}

func TestDeduct_EmptyBalanceSkipped(t *testing.T) {
	balances := map[SourceRef]decimal.Decimal{
		{Kind: KindWallet, ID: 1}:    d("0"),
		{Kind: KindSubWallet, ID: 2}: d("100"),
	}
	sources := []SourceRef{
		{Kind: KindWallet, ID: 1},
		{Kind: KindSubWallet, ID: 2},
	}

	res, err := Deduct(d("100"), sources, mapLookup(balances))
	if err != nil {
		t.Fatalf("Deduct() error = %v, want nil", err)
	}
	if len(res.Deductions) != 1 || res.Deductions[0].ID != 2 {
		t.Errorf("deductions = %+v, want only source 2 (zero balance emits no deduction)", res.Deductions)
	}
}

func TestDeduct_InvalidInput(t *testing.T) {
	lookup := mapLookup(nil)

	if _, err := Deduct(d("0"), []SourceRef{{Kind: KindWallet, ID: 1}}, lookup); err == nil {
		t.Error("Deduct(0) error = nil, want error")
	}
	if _, err := Deduct(d("-5"), []SourceRef{{Kind: KindWallet, ID: 1}}, lookup); err == nil {
		t.Error("Deduct(-5) error = nil, want error")
	}
	if _, err := Deduct(d("10"), nil, lookup); err == nil {
		t.Error("Deduct() with no sources error = nil, want error")
	}
	if _, err := Deduct(d("10"), []SourceRef{{Kind: "cash", ID: 1}}, lookup); err == nil {
		t.Error("Deduct() with unknown kind error = nil, want error")
	}
}
