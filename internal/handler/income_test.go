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

// Deleting an income must succeed even when one of its allocation targets
// was deleted in the meantime; the missing target's share was already moved
// to the parent wallet and must not be debited twice.
func TestDeleteIncome_AfterSubWalletDeleted(t *testing.T) {
	db := newTestDB(t)
	st := store.New(db)
	bus := events.NewBus()
	user := newTestUser(t, db, st)

	incomes := NewIncomeHandler(db, st, bus)
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

	var entry models.IncomeEntry
	if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
		t.Fatalf("load income: %v", err)
	}

	c, w = testContext(t, user, nil, sub.ID)
	wallets.DeleteSubWallet(c)
	if w.Code != http.StatusOK {
		t.Fatalf("DeleteSubWallet status = %d, body = %s", w.Code, w.Body.String())
	}

	c, w = testContext(t, user, nil, entry.ID)
	incomes.DeleteIncome(c)
	if w.Code != http.StatusOK {
		t.Fatalf("DeleteIncome status = %d, body = %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.IncomeEntry{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("income entries remaining = %d, want 0", count)
	}

	// needs and wants got their shares back; the saving wallet keeps the 500
	// that moved over when the sub-wallet was deleted
	ids, err := st.WalletIDsByCategory(user.ID)
	if err != nil {
		t.Fatalf("wallet ids: %v", err)
	}
	if got := walletBalance(t, db, ids[models.CategorySaving]); got != "500" {
		t.Errorf("saving balance = %s, want 500", got)
	}
	if got := walletBalance(t, db, ids[models.CategoryNeeds]); got != "0" {
		t.Errorf("needs balance = %s, want 0", got)
	}
	if got := walletBalance(t, db, ids[models.CategoryWants]); got != "0" {
		t.Errorf("wants balance = %s, want 0", got)
	}
}
