// Package store is the repository layer over GORM. All balance mutation goes
// through here so the engines stay pure and handlers never touch wallet rows
// directly.
package store

import (
	"errors"
	"fmt"

	"github.com/iamnotbasant/basantmoney-sub000/internal/ledger"
	"github.com/iamnotbasant/basantmoney-sub000/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// errTargetMissing marks a balance adjustment whose wallet or sub-wallet row
// no longer exists. The reversal paths skip such targets; everywhere else it
// is a hard error.
var errTargetMissing = errors.New("target no longer exists")

// Store wraps the database handle with wallet and balance operations, scoped
// by user on every query.
type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// ListWallets returns the user's three category wallets.
func (s *Store) ListWallets(userID uint) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.DB.Where("user_id = ?", userID).Order("id ASC").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// ListSubWallets returns the user's sub-wallets, optionally filtered by
// parent category.
func (s *Store) ListSubWallets(userID uint, category string) ([]models.SubWallet, error) {
	q := s.DB.Where("user_id = ?", userID)
	if category != "" {
		q = q.Where("parent_category = ?", category)
	}
	var subs []models.SubWallet
	if err := q.Order("id ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list sub-wallets: %w", err)
	}
	return subs, nil
}

// WalletIDsByCategory maps each category to the user's wallet id, as the
// allocation engine expects.
func (s *Store) WalletIDsByCategory(userID uint) (map[string]uint, error) {
	wallets, err := s.ListWallets(userID)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string]uint, len(wallets))
	for _, w := range wallets {
		byCategory[w.Category] = w.ID
	}
	return byCategory, nil
}

// SubWalletShares returns the user's sub-wallet allocation configuration in
// the engine's shape.
func (s *Store) SubWalletShares(userID uint) ([]ledger.SubWalletShare, error) {
	subs, err := s.ListSubWallets(userID, "")
	if err != nil {
		return nil, err
	}
	shares := make([]ledger.SubWalletShare, 0, len(subs))
	for _, sub := range subs {
		shares = append(shares, ledger.SubWalletShare{
			ParentCategory: sub.ParentCategory,
			SubWalletID:    sub.ID,
			Percent:        sub.AllocationPercent,
		})
	}
	return shares, nil
}

// BalanceLookup reads a snapshot of the user's wallet and sub-wallet balances
// and returns a lookup over it for the deduction engine. Wallet balances are
// stored remainders, so they are directly spendable as read.
func (s *Store) BalanceLookup(userID uint) (ledger.BalanceLookup, error) {
	wallets, err := s.ListWallets(userID)
	if err != nil {
		return nil, err
	}
	subs, err := s.ListSubWallets(userID, "")
	if err != nil {
		return nil, err
	}

	balances := make(map[ledger.SourceRef]decimal.Decimal, len(wallets)+len(subs))
	for _, w := range wallets {
		balances[ledger.SourceRef{Kind: ledger.KindWallet, ID: w.ID}] = w.Balance
	}
	for _, sub := range subs {
		balances[ledger.SourceRef{Kind: ledger.KindSubWallet, ID: sub.ID}] = sub.Balance
	}

	return func(kind string, id uint) (decimal.Decimal, bool) {
		b, ok := balances[ledger.SourceRef{Kind: kind, ID: id}]
		return b, ok
	}, nil
}

// ApplyCredits adds each credit amount to its target balance. Must run inside
// the caller's transaction.
func (s *Store) ApplyCredits(tx *gorm.DB, userID uint, credits []ledger.Credit) error {
	for _, c := range credits {
		if err := adjustBalance(tx, userID, c.Kind, c.ID, c.Amount, false); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDebits subtracts each debit amount from its source balance. With
// clampZero set (income reversal) a balance that would go negative is clamped
// to zero instead; without it a would-be-negative balance is an error, which
// the deduction engine's bounds make unreachable in normal operation.
func (s *Store) ApplyDebits(tx *gorm.DB, userID uint, debits []ledger.Deduction, clampZero bool) error {
	for _, dbt := range debits {
		if err := adjustBalance(tx, userID, dbt.Kind, dbt.ID, dbt.Amount.Neg(), clampZero); err != nil {
			return err
		}
	}
	return nil
}

// ApplyReversalCredits credits back the recorded deductions of a reversed
// expense. A source deleted since the expense was recorded is skipped and
// returned rather than failing the reversal: its remaining balance already
// moved to the parent wallet at deletion time, so the row is simply gone.
func (s *Store) ApplyReversalCredits(tx *gorm.DB, userID uint, credits []ledger.Credit) ([]ledger.Credit, error) {
	var skipped []ledger.Credit
	for _, c := range credits {
		err := adjustBalance(tx, userID, c.Kind, c.ID, c.Amount, false)
		if errors.Is(err, errTargetMissing) {
			skipped = append(skipped, c)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return skipped, nil
}

// ApplyReversalDebits takes back the recorded allocations of a reversed
// income, clamping each balance at zero. Targets deleted since the income
// was recorded are skipped and returned.
func (s *Store) ApplyReversalDebits(tx *gorm.DB, userID uint, debits []ledger.Deduction) ([]ledger.Deduction, error) {
	var skipped []ledger.Deduction
	for _, d := range debits {
		err := adjustBalance(tx, userID, d.Kind, d.ID, d.Amount.Neg(), true)
		if errors.Is(err, errTargetMissing) {
			skipped = append(skipped, d)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return skipped, nil
}

func adjustBalance(tx *gorm.DB, userID uint, kind string, id uint, delta decimal.Decimal, clampZero bool) error {
	switch kind {
	case ledger.KindWallet:
		var w models.Wallet
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("wallet %d: %w", id, errTargetMissing)
			}
			return fmt.Errorf("wallet %d: %w", id, err)
		}
		next, err := nextBalance(w.Balance, delta, clampZero)
		if err != nil {
			return fmt.Errorf("wallet %d: %w", id, err)
		}
		return tx.Model(&w).Update("balance", next).Error
	case ledger.KindSubWallet:
		var sub models.SubWallet
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("sub-wallet %d: %w", id, errTargetMissing)
			}
			return fmt.Errorf("sub-wallet %d: %w", id, err)
		}
		next, err := nextBalance(sub.Balance, delta, clampZero)
		if err != nil {
			return fmt.Errorf("sub-wallet %d: %w", id, err)
		}
		return tx.Model(&sub).Update("balance", next).Error
	}
	return fmt.Errorf("unknown source kind %q", kind)
}

func nextBalance(current, delta decimal.Decimal, clampZero bool) (decimal.Decimal, error) {
	next := current.Add(delta)
	if next.IsNegative() {
		if !clampZero {
			return decimal.Zero, fmt.Errorf("balance would go negative (%s)", next)
		}
		next = decimal.Zero
	}
	return next, nil
}
