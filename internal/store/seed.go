package store

import (
	"fmt"

	"github.com/iamnotbasant/basantmoney-sub000/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Default income split for new accounts: 50/30/20.
var defaultDistribution = models.DistributionSetting{Saving: 50, Needs: 30, Wants: 20}

var defaultWallets = []struct {
	name     string
	category string
	color    string
}{
	{"Saving", models.CategorySaving, "#2e7d32"},
	{"Needs", models.CategoryNeeds, "#1565c0"},
	{"Wants", models.CategoryWants, "#ef6c00"},
}

// SeedDefaults creates the three category wallets and the default
// distribution for a newly registered user. Idempotent per user.
func (s *Store) SeedDefaults(userID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Wallet{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("count wallets: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, w := range defaultWallets {
			wallet := models.Wallet{
				UserID:   userID,
				Name:     w.name,
				Category: w.category,
				Color:    w.color,
				Balance:  decimal.Zero,
			}
			if err := tx.Create(&wallet).Error; err != nil {
				return fmt.Errorf("seed wallet %s: %w", w.category, err)
			}
		}

		dist := defaultDistribution
		dist.UserID = userID
		if err := tx.Create(&dist).Error; err != nil {
			return fmt.Errorf("seed distribution: %w", err)
		}
		return nil
	})
}
