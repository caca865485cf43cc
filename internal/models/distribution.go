package models

import "time"

// DistributionSetting is the per-user income split across the three wallet
// categories. The three percentages must sum to 100 before any allocation
// runs; this is enforced at update time, the engine assumes valid input.
type DistributionSetting struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex;not null"`
	Saving    int  `gorm:"not null"`
	Needs     int  `gorm:"not null"`
	Wants     int  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
