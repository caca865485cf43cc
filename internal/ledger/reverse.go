package ledger

// ReverseExpense turns an expense's persisted deductions back into credits.
// This is exact: the deductions list is immutable audit data captured when
// the expense was recorded, so every touched source gets back precisely what
// was taken from it.
func ReverseExpense(deductions []Deduction) []Credit {
	credits := make([]Credit, 0, len(deductions))
	for _, d := range deductions {
		credits = append(credits, Credit{Kind: d.Kind, ID: d.ID, Amount: d.Amount})
	}
	return credits
}

// ReverseIncome turns an income's persisted allocation breakdown into debits.
// Because the breakdown is stored with the income at creation time, reversal
// does not depend on the distribution settings or sub-wallet configuration in
// effect at deletion time. The caller clamps each target balance at zero when
// applying, so drift from manual transfers can never drive a balance
// negative.
func ReverseIncome(allocations []Credit) []Deduction {
	debits := make([]Deduction, 0, len(allocations))
	for _, a := range allocations {
		debits = append(debits, Deduction{Kind: a.Kind, ID: a.ID, Amount: a.Amount})
	}
	return debits
}
