package database

import (
	"fmt"

	"github.com/iamnotbasant/basantmoney-sub000/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.SubWallet{},
		&models.DistributionSetting{},
		&models.IncomeEntry{},
		&models.IncomeAllocation{},
		&models.ExpenseEntry{},
		&models.ExpenseDeduction{},
		&models.UdaarEntry{},
		&models.PaymentHistory{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
