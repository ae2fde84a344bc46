package models

import "time"

// Find is the single-claim gate: at most one row per (user, item).
type Find struct {
	UserID  string    `gorm:"primaryKey;type:varchar(32)" json:"user_id"`
	ItemID  string    `gorm:"primaryKey;type:varchar(32);index" json:"item_id"`
	FoundAt time.Time `gorm:"autoCreateTime" json:"found_at"`
}
