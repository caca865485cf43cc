package store

import (
	"testing"

	"github.com/iamnotbasant/basantmoney-sub000/internal/database"
	"github.com/iamnotbasant/basantmoney-sub000/internal/ledger"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// seedWalletAndSub creates one saving wallet and one sub-wallet under it.
func seedWalletAndSub(t *testing.T, db *gorm.DB, userID uint) (*models.Wallet, *models.SubWallet) {
	t.Helper()
	w := models.Wallet{UserID: userID, Name: "Saving", Category: models.CategorySaving, Balance: decimal.Zero}
	if err := db.Create(&w).Error; err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	sub := models.SubWallet{UserID: userID, ParentCategory: models.CategorySaving, Name: "Emergency", AllocationPercent: 100, Balance: decimal.Zero}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("create sub-wallet: %v", err)
	}
	return &w, &sub
}

// An income whose breakdown credits a sub-wallet must stay reversible after
// the sub-wallet is deleted: the missing target is skipped and reported, the
// surviving targets are still debited.
func TestApplyReversalDebits_SkipsDeletedSubWallet(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	w, sub := seedWalletAndSub(t, db, 1)

	credits := []ledger.Credit{
		{Kind: ledger.KindSubWallet, ID: sub.ID, Amount: dec("500")},
		{Kind: ledger.KindWallet, ID: w.ID, Amount: dec("300")},
	}
	if err := s.ApplyCredits(db, 1, credits); err != nil {
		t.Fatalf("ApplyCredits() error = %v, want nil", err)
	}

	// deleting the sub-wallet moves its balance into the parent wallet
	if err := s.ApplyCredits(db, 1, []ledger.Credit{{Kind: ledger.KindWallet, ID: w.ID, Amount: dec("500")}}); err != nil {
		t.Fatalf("move balance to parent: %v", err)
	}
	if err := db.Delete(&models.SubWallet{}, sub.ID).Error; err != nil {
		t.Fatalf("delete sub-wallet: %v", err)
	}

	skipped, err := s.ApplyReversalDebits(db, 1, ledger.ReverseIncome(credits))
	if err != nil {
		t.Fatalf("ApplyReversalDebits() error = %v, want nil", err)
	}
	if len(skipped) != 1 || skipped[0].ID != sub.ID {
		t.Fatalf("skipped = %+v, want the deleted sub-wallet only", skipped)
	}

	// wallet debited by its own 300; the 500 moved at deletion time stays
	var got models.Wallet
	if err := db.First(&got, w.ID).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	if !got.Balance.Equal(dec("500")) {
		t.Errorf("wallet balance = %s, want 500", got.Balance)
	}
}

// An expense funded from a since-deleted sub-wallet must still be reversible.
func TestApplyReversalCredits_SkipsDeletedSubWallet(t *testing.T) {
	db := newTestDB(t)
	s := New(db)
	w, sub := seedWalletAndSub(t, db, 1)

	if err := s.ApplyCredits(db, 1, []ledger.Credit{
		{Kind: ledger.KindSubWallet, ID: sub.ID, Amount: dec("200")},
		{Kind: ledger.KindWallet, ID: w.ID, Amount: dec("100")},
	}); err != nil {
		t.Fatalf("ApplyCredits() error = %v, want nil", err)
	}

	deductions := []ledger.Deduction{
		{Kind: ledger.KindSubWallet, ID: sub.ID, Amount: dec("150")},
		{Kind: ledger.KindWallet, ID: w.ID, Amount: dec("50")},
	}
	if err := s.ApplyDebits(db, 1, deductions, false); err != nil {
		t.Fatalf("ApplyDebits() error = %v, want nil", err)
	}

	if err := db.Delete(&models.SubWallet{}, sub.ID).Error; err != nil {
		t.Fatalf("delete sub-wallet: %v", err)
	}

	skipped, err := s.ApplyReversalCredits(db, 1, ledger.ReverseExpense(deductions))
	if err != nil {
		t.Fatalf("ApplyReversalCredits() error = %v, want nil", err)
	}
	if len(skipped) != 1 || skipped[0].ID != sub.ID {
		t.Fatalf("skipped = %+v, want the deleted sub-wallet only", skipped)
	}

	var got models.Wallet
	if err := db.First(&got, w.ID).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	if !got.Balance.Equal(dec("100")) {
		t.Errorf("wallet balance = %s, want 100", got.Balance)
	}
}

// Outside the reversal paths a missing target is still a hard error.
func TestApplyDebits_MissingTargetFails(t *testing.T) {
	db := newTestDB(t)
	s := New(db)

	err := s.ApplyDebits(db, 1, []ledger.Deduction{{Kind: ledger.KindSubWallet, ID: 99, Amount: dec("10")}}, false)
	if err == nil {
		t.Fatal("ApplyDebits() error = nil, want error for missing target")
	}
}
