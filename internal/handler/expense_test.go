package handler

import (
	"net/http"
	"testing"

	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"
	"github.com/iamnotbasant/basantmoney-sub000/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Deleting an expense funded from a since-deleted sub-wallet must succeed;
// the refund for the missing source is skipped, not double-credited.
func TestDeleteExpense_AfterSubWalletDeleted(t *testing.T) {
	db := newTestDB(t)
	st := store.New(db)
	bus := events.NewBus()
	user := newTestUser(t, db, st)

	incomes := NewIncomeHandler(db, st, bus)
	expenses := NewExpenseHandler(db, st, bus)
	wallets := NewWalletHandler(db, st, bus)

	sub := models.SubWallet{
		UserID:            user.ID,
		ParentCategory:    models.CategorySaving,
		Name:              "Emergency",
		AllocationPercent: 100,
		Balance:           decimal.Zero,
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("create sub-wallet: %v", err)
	}

	c, w := testContext(t, user, gin.H{"amount": "1000", "category": "salary"}, 0)
	incomes.CreateIncome(c)
	if w.Code != http.StatusOK {
		t.Fatalf("CreateIncome status = %d, body = %s", w.Code, w.Body.String())
	}

	c, w = testContext(t, user, gin.H{
		"amount":   "100",
		"category": "groceries",
		"sources":  []gin.H{{"kind": "subwallet", "id": sub.ID}},
	}, 0)
	expenses.CreateExpense(c)
	if w.Code != http.StatusOK {
		t.Fatalf("CreateExpense status = %d, body = %s", w.Code, w.Body.String())
	}

	var entry models.ExpenseEntry
	if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
		t.Fatalf("load expense: %v", err)
	}

	// sub-wallet holds 400 now; deleting it moves that to the saving wallet
	c, w = testContext(t, user, nil, sub.ID)
	wallets.DeleteSubWallet(c)
	if w.Code != http.StatusOK {
		t.Fatalf("DeleteSubWallet status = %d, body = %s", w.Code, w.Body.String())
	}

	c, w = testContext(t, user, nil, entry.ID)
	expenses.DeleteExpense(c)
	if w.Code != http.StatusOK {
		t.Fatalf("DeleteExpense status = %d, body = %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.ExpenseEntry{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("expense entries remaining = %d, want 0", count)
	}

	// the skipped refund must not land anywhere: saving keeps exactly the 400
	// moved over at deletion time
	ids, err := st.WalletIDsByCategory(user.ID)
	if err != nil {
		t.Fatalf("wallet ids: %v", err)
	}
	if got := walletBalance(t, db, ids[models.CategorySaving]); got != "400" {
		t.Errorf("saving balance = %s, want 400", got)
	}
}
