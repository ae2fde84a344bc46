package models

import "time"

// UserScore is the running total for a user; only ever incremented.
type UserScore struct {
	UserID     string    `gorm:"primaryKey;type:varchar(32)" json:"user_id"`
	Points     int64     `gorm:"not null;index" json:"points"`
	BonusCount int64     `gorm:"not null" json:"bonus_count"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
